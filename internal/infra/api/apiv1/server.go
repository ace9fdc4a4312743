package apiv1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"momo-checkout/internal/domain"
	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/infra/logging"
	"momo-checkout/internal/usecase"
)

const maxBodyBytes = 64 << 10

// Server exposes checkout sessions as JSON resources.
type Server struct {
	uc  *usecase.CheckoutUseCase
	log *zerolog.Logger
}

func NewServer(uc *usecase.CheckoutUseCase, logger *zerolog.Logger) *Server {
	return &Server{uc: uc, log: logger}
}

// Register mounts the v1 routes under /api/v1.
func (s *Server) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", s.listPlans)
		r.Post("/sessions", s.openSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.closeSession)
			r.Put("/phone", s.setPhone)
			r.Put("/promo", s.setPromo)
			r.Post("/promo/apply", s.applyPromo)
			r.Post("/submit", s.submit)
		})
	})
}

type plansResponse struct {
	Items []*model.Plan `json:"items"`
}

type openSessionRequest struct {
	PlanSlug   string   `json:"plan_slug"`
	JobID      string   `json:"job_id,omitempty"`
	AddOnSlugs []string `json:"add_on_slugs,omitempty"`
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

type promoRequest struct {
	Code string `json:"code"`
}

type submitRequest struct {
	Phone   string `json:"phone"`
	Gateway string `json:"gateway,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.uc.ListPlans(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if plans == nil {
		plans = []*model.Plan{}
	}
	writeJSON(w, http.StatusOK, plansResponse{Items: plans})
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, err := s.uc.Open(r.Context(), usecase.OpenRequest{
		PlanSlug:   req.PlanSlug,
		JobID:      req.JobID,
		AddOnSlugs: req.AddOnSlugs,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Close(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setPhone(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req phoneRequest
	if !s.decode(w, r, &req) {
		return
	}
	snap, err := sess.SetPhone(req.Phone)
	s.writeSnapshot(w, r, http.StatusOK, snap, err)
}

func (s *Server) setPromo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req promoRequest
	if !s.decode(w, r, &req) {
		return
	}
	snap, err := sess.SetPromoCode(req.Code)
	s.writeSnapshot(w, r, http.StatusOK, snap, err)
}

func (s *Server) applyPromo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req promoRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := logging.WithSessID(r.Context(), sess.ID())
	snap, err := sess.ApplyPromo(ctx, req.Code)
	s.writeSnapshot(w, r, http.StatusOK, snap, err)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := logging.WithSessID(r.Context(), sess.ID())
	snap, err := sess.Submit(ctx, req.Phone, req.Gateway)
	status := http.StatusAccepted
	if err == nil && snap.Error == usecase.MsgPhoneRequired {
		// Rejected locally, whatever the previous status; the snapshot carries the inline error.
		status = http.StatusOK
	}
	s.writeSnapshot(w, r, status, snap, err)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*usecase.PaymentSession, bool) {
	sess, err := s.uc.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return false
	}
	return true
}

// writeSnapshot reports conflicts with the snapshot still attached so a client
// can redraw without a second request.
func (s *Server) writeSnapshot(w http.ResponseWriter, r *http.Request, status int, snap usecase.Snapshot, err error) {
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPaymentInFlight), errors.Is(err, domain.ErrAlreadyPaid):
			writeJSON(w, http.StatusConflict, struct {
				Error   string           `json:"error"`
				Session usecase.Snapshot `json:"session"`
			}{Error: err.Error(), Session: snap})
		default:
			s.writeError(w, r, err)
		}
		return
	}
	writeJSON(w, status, snap)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "session not found"
	case errors.Is(err, domain.ErrPlanUnavailable):
		status, msg = http.StatusNotFound, "plan not found"
	case errors.Is(err, domain.ErrInvalidArgument):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrSessionClosed):
		status, msg = http.StatusGone, "session closed"
	case errors.Is(err, domain.ErrPaymentInFlight), errors.Is(err, domain.ErrAlreadyPaid):
		status, msg = http.StatusConflict, err.Error()
	}
	if status == http.StatusInternalServerError {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("checkout api error")
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

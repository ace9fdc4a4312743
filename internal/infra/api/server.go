package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"momo-checkout/internal/infra/api/apiv1"
	"momo-checkout/internal/usecase"
)

// NewRouter assembles the checkout service: health, metrics and the v1 session API.
func NewRouter(uc *usecase.CheckoutUseCase, requestTimeout time.Duration, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(logger), Recover(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(Timeout(requestTimeout))
		apiv1.NewServer(uc, logger).Register(r)
	})
	return r
}

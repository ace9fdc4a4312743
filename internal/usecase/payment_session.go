package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"momo-checkout/internal/domain"
	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
	"momo-checkout/internal/infra/logging"
	"momo-checkout/internal/infra/metrics"
)

// Customer facing messages.
const (
	MsgPhoneRequired      = "Please enter your phone number"
	MsgSomethingWentWrong = "Something went wrong. Please try again."
	MsgPaymentDeclined    = "Payment was declined. Please try again."
	MsgPaymentTimedOut    = "Payment timed out. Please check your phone and try again."
)

// PollPolicy bounds the confirmation wait: MaxAttempts status queries spaced by a
// fixed Interval. The bound is checked before each query, so the wall-clock wait
// can overrun MaxAttempts*Interval by at most one interval.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{Interval: 5 * time.Second, MaxAttempts: 60}
}

func (p PollPolicy) normalized() PollPolicy {
	d := DefaultPollPolicy()
	if p.Interval <= 0 {
		p.Interval = d.Interval
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	return p
}

// SessionOptions seeds a PaymentSession.
type SessionOptions struct {
	ID         string
	Plan       model.Plan
	JobID      string
	AddOnSlugs []string
	Policy     PollPolicy
	// OnSuccess runs once, outside the session lock, when the payment completes.
	OnSuccess func(Snapshot)
	Dev       bool
	Now       func() time.Time
}

// Charge is what the last Submit actually sent to the backend. Later edits to the
// inputs do not change it.
type Charge struct {
	Amount    int64         `json:"amount"`
	PromoCode string        `json:"promo_code,omitempty"`
	Phone     string        `json:"phone"`
	Carrier   model.Carrier `json:"carrier"`
}

// Snapshot is a read-only view of a session; derived values are computed on each call.
type Snapshot struct {
	ID            string              `json:"id"`
	PlanSlug      string              `json:"plan_slug"`
	PlanName      string              `json:"plan_name"`
	PlanAmount    int64               `json:"plan_amount"`
	Currency      string              `json:"currency"`
	JobID         string              `json:"job_id,omitempty"`
	AddOnSlugs    []string            `json:"add_on_slugs,omitempty"`
	Phone         string              `json:"phone"`
	Carrier       model.Carrier       `json:"carrier"`
	PromoCode     string              `json:"promo_code"`
	Promo         *model.PromoResult  `json:"promo,omitempty"`
	PromoPending  bool                `json:"promo_pending"`
	FinalAmount   int64               `json:"final_amount"`
	Status        model.PaymentStatus `json:"status"`
	Error         string              `json:"error,omitempty"`
	TransactionID string              `json:"transaction_id,omitempty"`
	PollAttempts  int                 `json:"poll_attempts"`
	Charge        *Charge             `json:"charge,omitempty"`
	Prompt        string              `json:"prompt,omitempty"`
	Closed        bool                `json:"closed"`
}

// PaymentSession is the state machine behind one open payment dialog. It owns
// the inputs, the last promo result, the status and the poll loop. After Close
// nothing mutates it, including responses that were already in flight.
type PaymentSession struct {
	id        string
	plan      model.Plan
	jobID     string
	addOns    []string
	api       adapter.PaymentAPI
	promos    *PromoValidator
	policy    PollPolicy
	onSuccess func(Snapshot)
	now       func() time.Time
	dev       bool
	log       *zerolog.Logger

	// ctx lives as long as the session; Close cancels it and with it the poller.
	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	phone        string
	promoCode    string
	promo        *model.PromoResult
	promoFor     string
	promoSeq     int
	promoPending bool
	status       model.PaymentStatus
	errMsg       string
	txID         string
	attempts     int
	charge       *Charge
	closed       bool
	lastActive   time.Time
	pollDone     chan struct{}
}

func NewPaymentSession(api adapter.PaymentAPI, opts SessionOptions, logger *zerolog.Logger) *PaymentSession {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := logger.With().Str("session_id", opts.ID).Str("plan", opts.Plan.Slug).Logger()
	s := &PaymentSession{
		id:        opts.ID,
		plan:      opts.Plan,
		jobID:     opts.JobID,
		addOns:    append([]string(nil), opts.AddOnSlugs...),
		api:       api,
		promos:    NewPromoValidator(api, &l),
		policy:    opts.Policy.normalized(),
		onSuccess: opts.OnSuccess,
		now:       now,
		dev:       opts.Dev,
		log:       &l,
		ctx:       ctx,
		cancel:    cancel,
		status:    model.PaymentStatusIdle,
	}
	s.lastActive = now()
	return s
}

func (s *PaymentSession) ID() string { return s.id }

// SetPhone records the phone input; the carrier is re-derived on every snapshot.
func (s *PaymentSession) SetPhone(phone string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.snapshotLocked(), domain.ErrSessionClosed
	}
	s.phone = phone
	s.touchLocked()
	return s.snapshotLocked(), nil
}

// SetPromoCode records the promo input. Any edit drops the stored result, so a
// code validated earlier cannot ride along under different text.
func (s *PaymentSession) SetPromoCode(code string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.snapshotLocked(), domain.ErrSessionClosed
	}
	s.setPromoCodeLocked(code)
	s.touchLocked()
	return s.snapshotLocked(), nil
}

func (s *PaymentSession) setPromoCodeLocked(code string) {
	if code == s.promoCode {
		return
	}
	s.promoCode = code
	s.promo = nil
	s.promoFor = ""
}

// ApplyPromo validates code against the plan and stores the result, replacing any
// previous one. Blank codes are ignored. A result that comes back after the code
// was edited again, or after a newer ApplyPromo started, is discarded.
func (s *PaymentSession) ApplyPromo(ctx context.Context, code string) (Snapshot, error) {
	trimmed := strings.TrimSpace(code)

	s.mu.Lock()
	if s.closed {
		defer s.mu.Unlock()
		return s.snapshotLocked(), domain.ErrSessionClosed
	}
	s.setPromoCodeLocked(code)
	s.touchLocked()
	if trimmed == "" {
		defer s.mu.Unlock()
		return s.snapshotLocked(), nil
	}
	s.promoSeq++
	seq := s.promoSeq
	s.promoPending = true
	plan := s.plan
	s.mu.Unlock()

	vctx, stop := s.bind(ctx)
	res := s.promos.Validate(vctx, trimmed, plan)
	stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.snapshotLocked(), domain.ErrSessionClosed
	}
	if seq != s.promoSeq {
		return s.snapshotLocked(), nil
	}
	s.promoPending = false
	if strings.TrimSpace(s.promoCode) != trimmed {
		return s.snapshotLocked(), nil
	}
	s.promo = &res
	s.promoFor = trimmed
	return s.snapshotLocked(), nil
}

// Submit starts a payment for phone. A phone with no digits left after
// normalisation only sets the inline error.
// While a payment is in flight, or once one succeeded, Submit is refused; after a
// failure it starts over. Payment failures are reported through the snapshot,
// never as an error.
func (s *PaymentSession) Submit(ctx context.Context, phone, gateway string) (Snapshot, error) {
	defer logging.TraceDuration(s.log, "PaymentSession.Submit")()

	s.mu.Lock()
	if s.closed {
		defer s.mu.Unlock()
		return s.snapshotLocked(), domain.ErrSessionClosed
	}
	switch {
	case s.status.InFlight():
		defer s.mu.Unlock()
		return s.snapshotLocked(), domain.ErrPaymentInFlight
	case s.status == model.PaymentStatusSuccess:
		defer s.mu.Unlock()
		return s.snapshotLocked(), domain.ErrAlreadyPaid
	}
	s.phone = phone
	s.touchLocked()
	if model.NormalizePhone(phone) == "" {
		s.errMsg = MsgPhoneRequired
		defer s.mu.Unlock()
		return s.snapshotLocked(), nil
	}
	if err := s.transitionLocked(model.PaymentStatusProcessing); err != nil {
		defer s.mu.Unlock()
		return s.snapshotLocked(), err
	}
	s.errMsg = ""
	s.txID = ""
	s.attempts = 0
	req := buildPaymentRequest(paymentIntent{
		plan:       s.plan,
		phone:      s.phone,
		promoCode:  s.promoCode,
		promo:      s.promo,
		promoFor:   s.promoFor,
		gateway:    gateway,
		jobID:      s.jobID,
		addOnSlugs: s.addOns,
	})
	charge := chargeFor(s.plan, s.promo, req, phone)
	s.charge = &charge
	s.mu.Unlock()

	s.log.Info().
		Str("phone", logging.Redact(req.PhoneNumber, s.dev)).
		Str("carrier", string(charge.Carrier)).
		Bool("promo", req.PromoCode != "").
		Str("gateway", req.Gateway).
		Msg("initiating payment")

	ictx, stop := s.bind(ctx)
	txID, err := s.api.Initiate(ictx, req)
	stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.snapshotLocked(), domain.ErrSessionClosed
	}
	if err != nil {
		msg, result := initiationFailure(err)
		metrics.IncInitiation(result)
		metrics.IncOutcome(result, string(charge.Carrier))
		s.log.Warn().Err(err).Str("result", result).Msg("payment initiation failed")
		s.failLocked(msg)
		return s.snapshotLocked(), nil
	}
	metrics.IncInitiation("ok")
	s.txID = txID
	if err := s.transitionLocked(model.PaymentStatusPolling); err != nil {
		return s.snapshotLocked(), err
	}
	done := make(chan struct{})
	s.pollDone = done
	go s.pollLoop(txID, done)
	s.log.Info().Str("transaction_id", txID).Msg("payment initiated, waiting for confirmation")
	return s.snapshotLocked(), nil
}

// Close tears the session down. It cancels the poll loop and any request the
// session started; it does not wait for them to return.
func (s *PaymentSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	s.log.Debug().Str("status", string(s.status)).Msg("session closed")
}

func (s *PaymentSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Done is closed when the current poll loop has exited. Without a poll loop it
// returns an already closed channel.
func (s *PaymentSession) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pollDone == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.pollDone
}

func (s *PaymentSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// IdleFor reports how long the session has gone without input or a status change.
// In-flight sessions are never idle.
func (s *PaymentSession) IdleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.InFlight() {
		return 0
	}
	return now.Sub(s.lastActive)
}

// FinalAmount is the price to charge: the promo price when the stored result is
// valid, otherwise the plan amount.
func (s *PaymentSession) FinalAmount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalAmountLocked()
}

func (s *PaymentSession) finalAmountLocked() int64 {
	if s.promo != nil && s.promo.Valid {
		return s.promo.FinalAmount
	}
	return s.plan.Amount
}

func (s *PaymentSession) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:            s.id,
		PlanSlug:      s.plan.Slug,
		PlanName:      s.plan.Name,
		PlanAmount:    s.plan.Amount,
		Currency:      model.CurrencyXAF,
		JobID:         s.jobID,
		Phone:         s.phone,
		Carrier:       model.DetectCarrier(s.phone),
		PromoCode:     s.promoCode,
		PromoPending:  s.promoPending,
		FinalAmount:   s.finalAmountLocked(),
		Status:        s.status,
		Error:         s.errMsg,
		TransactionID: s.txID,
		PollAttempts:  s.attempts,
		Closed:        s.closed,
	}
	if s.charge != nil {
		c := *s.charge
		snap.Charge = &c
	}
	if len(s.addOns) > 0 {
		snap.AddOnSlugs = append([]string(nil), s.addOns...)
	}
	if s.promo != nil {
		p := *s.promo
		snap.Promo = &p
	}
	if s.status == model.PaymentStatusPolling {
		snap.Prompt = waitingPrompt(snap.Carrier)
	}
	return snap
}

func waitingPrompt(c model.Carrier) string {
	if c == model.CarrierUnknown {
		return "Check your phone and approve the payment prompt."
	}
	return fmt.Sprintf("Check your phone and approve the %s prompt.", c)
}

func (s *PaymentSession) transitionLocked(to model.PaymentStatus) error {
	if !s.status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, s.status, to)
	}
	s.log.Debug().Str("from", string(s.status)).Str("to", string(to)).Msg("status transition")
	s.status = to
	s.touchLocked()
	return nil
}

func (s *PaymentSession) failLocked(msg string) {
	if err := s.transitionLocked(model.PaymentStatusFailed); err != nil {
		s.log.Error().Err(err).Msg("cannot fail session")
		return
	}
	s.errMsg = msg
}

// chargedCarrierLocked is the carrier of the submitted phone, falling back to the
// current input before the first Submit.
func (s *PaymentSession) chargedCarrierLocked() model.Carrier {
	if s.charge != nil {
		return s.charge.Carrier
	}
	return model.DetectCarrier(s.phone)
}

func (s *PaymentSession) touchLocked() { s.lastActive = s.now() }

// bind derives a context from a caller's ctx that is also cancelled by Close.
func (s *PaymentSession) bind(ctx context.Context) (context.Context, func()) {
	cctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return cctx, func() {
		stop()
		cancel()
	}
}

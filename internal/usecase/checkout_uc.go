package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"momo-checkout/internal/domain"
	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
	"momo-checkout/internal/domain/ports/repository"
	"momo-checkout/internal/infra/metrics"
)

// OpenRequest seeds a new checkout session.
type OpenRequest struct {
	PlanSlug   string
	JobID      string
	AddOnSlugs []string
}

// CheckoutOptions tunes the use case; zero values fall back to defaults.
type CheckoutOptions struct {
	Policy  PollPolicy
	IdleTTL time.Duration
	Dev     bool
	Now     func() time.Time

	// NotifyTimeout bounds one success notification.
	NotifyTimeout time.Duration
}

// CheckoutUseCase owns the open payment sessions of this process.
type CheckoutUseCase struct {
	plans    repository.PlanRepository
	api      adapter.PaymentAPI
	notifier adapter.Notifier
	opts     CheckoutOptions
	log      *zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*PaymentSession
}

func NewCheckoutUseCase(plans repository.PlanRepository, api adapter.PaymentAPI, notifier adapter.Notifier, opts CheckoutOptions, logger *zerolog.Logger) *CheckoutUseCase {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Policy = opts.Policy.normalized()
	return &CheckoutUseCase{
		plans:    plans,
		api:      api,
		notifier: notifier,
		opts:     opts,
		log:      logger,
		sessions: make(map[string]*PaymentSession),
	}
}

// ListPlans returns the purchasable plans, cheapest first.
func (uc *CheckoutUseCase) ListPlans(ctx context.Context) ([]*model.Plan, error) {
	plans, err := uc.plans.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// Open looks the plan up and registers a fresh idle session for it.
func (uc *CheckoutUseCase) Open(ctx context.Context, req OpenRequest) (*PaymentSession, error) {
	slug := strings.TrimSpace(req.PlanSlug)
	if slug == "" {
		return nil, fmt.Errorf("%w: plan_slug is required", domain.ErrInvalidArgument)
	}
	plan, err := uc.plans.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPlanUnavailable, slug)
		}
		return nil, fmt.Errorf("find plan %s: %w", slug, err)
	}

	id := uuid.NewString()
	s := NewPaymentSession(uc.api, SessionOptions{
		ID:         id,
		Plan:       *plan,
		JobID:      strings.TrimSpace(req.JobID),
		AddOnSlugs: compactSlugs(req.AddOnSlugs),
		Policy:     uc.opts.Policy,
		OnSuccess:  uc.paymentSucceeded,
		Dev:        uc.opts.Dev,
		Now:        uc.opts.Now,
	}, uc.log)

	uc.mu.Lock()
	uc.sessions[id] = s
	n := len(uc.sessions)
	uc.mu.Unlock()

	metrics.IncSession("opened")
	metrics.SetActiveSessions(n)
	uc.log.Info().Str("session_id", id).Str("plan", plan.Slug).Int64("amount", plan.Amount).Msg("checkout session opened")
	return s, nil
}

// Get returns an open session.
func (uc *CheckoutUseCase) Get(id string) (*PaymentSession, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	s, ok := uc.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// Close tears a session down and forgets it.
func (uc *CheckoutUseCase) Close(id string) error {
	uc.mu.Lock()
	s, ok := uc.sessions[id]
	if ok {
		delete(uc.sessions, id)
	}
	n := len(uc.sessions)
	uc.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.Close()
	metrics.IncSession("closed")
	metrics.SetActiveSessions(n)
	return nil
}

// SweepIdle closes sessions nobody touched for longer than the idle TTL and
// returns how many were closed.
func (uc *CheckoutUseCase) SweepIdle(now time.Time) int {
	uc.mu.Lock()
	var stale []*PaymentSession
	for id, s := range uc.sessions {
		if s.IdleFor(now) > uc.opts.IdleTTL {
			stale = append(stale, s)
			delete(uc.sessions, id)
		}
	}
	n := len(uc.sessions)
	uc.mu.Unlock()

	for _, s := range stale {
		s.Close()
		metrics.IncSession("expired")
	}
	if len(stale) > 0 {
		metrics.SetActiveSessions(n)
		uc.log.Info().Int("expired", len(stale)).Int("active", n).Msg("idle checkout sessions swept")
	}
	return len(stale)
}

// Active reports the number of open sessions.
func (uc *CheckoutUseCase) Active() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.sessions)
}

// Shutdown closes every open session.
func (uc *CheckoutUseCase) Shutdown() {
	uc.mu.Lock()
	all := uc.sessions
	uc.sessions = make(map[string]*PaymentSession)
	uc.mu.Unlock()

	for _, s := range all {
		s.Close()
		metrics.IncSession("closed")
	}
	metrics.SetActiveSessions(0)
	uc.log.Info().Int("closed", len(all)).Msg("checkout sessions shut down")
}

func (uc *CheckoutUseCase) paymentSucceeded(snap Snapshot) {
	// The receipt reflects what was submitted, not inputs edited while polling.
	receipt := model.PaymentReceipt{
		SessionID:     snap.ID,
		TransactionID: snap.TransactionID,
		PlanSlug:      snap.PlanSlug,
		PlanName:      snap.PlanName,
		Amount:        snap.PlanAmount,
		Currency:      snap.Currency,
		Carrier:       snap.Carrier,
		JobID:         snap.JobID,
		CompletedAt:   uc.opts.Now(),
	}
	if c := snap.Charge; c != nil {
		receipt.Amount = c.Amount
		receipt.Carrier = c.Carrier
		receipt.PromoCode = c.PromoCode
	}

	metrics.IncOutcome("success", string(receipt.Carrier))
	metrics.AddPaymentRevenue(receipt.Currency, receipt.Amount)

	if uc.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), uc.opts.NotifyTimeout)
	defer cancel()
	if err := uc.notifier.NotifyPaymentSucceeded(ctx, receipt); err != nil {
		uc.log.Error().Err(err).Str("session_id", snap.ID).Str("transaction_id", snap.TransactionID).Msg("payment notification failed")
	}
}

func compactSlugs(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
	"momo-checkout/internal/usecase"
)

// =============================
// Adapters
// =============================

// ---- Mock PaymentAPI ----

// MockPaymentAPI records every call. Unset funcs succeed: promos are invalid,
// Initiate returns "tx-1" and Status returns "pending".
type MockPaymentAPI struct {
	mu       sync.Mutex
	Requests []model.PaymentRequest
	Promos   []string
	Polls    []string

	ValidatePromoFunc func(ctx context.Context, code, planSlug string) (model.PromoResult, error)
	InitiateFunc      func(ctx context.Context, req model.PaymentRequest) (string, error)
	StatusFunc        func(ctx context.Context, txID string) (string, error)
}

var _ adapter.PaymentAPI = (*MockPaymentAPI)(nil)

func (m *MockPaymentAPI) Name() string { return "mock" }

func (m *MockPaymentAPI) ValidatePromo(ctx context.Context, code, planSlug string) (model.PromoResult, error) {
	m.mu.Lock()
	m.Promos = append(m.Promos, code)
	m.mu.Unlock()
	if m.ValidatePromoFunc != nil {
		return m.ValidatePromoFunc(ctx, code, planSlug)
	}
	return model.PromoResult{Valid: false, Reason: "Unknown code"}, nil
}

func (m *MockPaymentAPI) Initiate(ctx context.Context, req model.PaymentRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, req)
	}
	return "tx-1", nil
}

func (m *MockPaymentAPI) Status(ctx context.Context, txID string) (string, error) {
	m.mu.Lock()
	m.Polls = append(m.Polls, txID)
	m.mu.Unlock()
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, txID)
	}
	return "pending", nil
}

func (m *MockPaymentAPI) PollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Polls)
}

func (m *MockPaymentAPI) LastRequest() (model.PaymentRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return model.PaymentRequest{}, false
	}
	return m.Requests[len(m.Requests)-1], true
}

// statusScript answers status queries from a fixed list; the last entry repeats.
func statusScript(steps ...string) func(context.Context, string) (string, error) {
	var mu sync.Mutex
	i := 0
	return func(context.Context, string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		s := steps[i]
		if i < len(steps)-1 {
			i++
		}
		return s, nil
	}
}

// ---- Mock Notifier ----

type MockNotifier struct {
	mu       sync.Mutex
	Receipts []model.PaymentReceipt

	NotifyPaymentSucceededFunc func(ctx context.Context, r model.PaymentReceipt) error
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) NotifyPaymentSucceeded(ctx context.Context, r model.PaymentReceipt) error {
	m.mu.Lock()
	m.Receipts = append(m.Receipts, r)
	m.mu.Unlock()
	if m.NotifyPaymentSucceededFunc != nil {
		return m.NotifyPaymentSucceededFunc(ctx, r)
	}
	return nil
}

func (m *MockNotifier) Sent() []model.PaymentReceipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PaymentReceipt(nil), m.Receipts...)
}

// -----------------------------
// Utilities
// -----------------------------

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func premiumPlan() model.Plan {
	return model.Plan{ID: "plan-1", Slug: "premium", Name: "Premium", Amount: 5000}
}

// fastPolicy keeps poll loops in the millisecond range.
func fastPolicy(maxAttempts int) usecase.PollPolicy {
	return usecase.PollPolicy{Interval: 2 * time.Millisecond, MaxAttempts: maxAttempts}
}

func newTestSession(api *MockPaymentAPI, onSuccess func(usecase.Snapshot)) *usecase.PaymentSession {
	return usecase.NewPaymentSession(api, usecase.SessionOptions{
		ID:        "sess-1",
		Plan:      premiumPlan(),
		Policy:    fastPolicy(60),
		OnSuccess: onSuccess,
	}, newTestLogger())
}

func waitDone(t *testing.T, s *usecase.PaymentSession) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("poll loop did not finish in time")
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

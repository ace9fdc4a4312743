//go:build !integration

package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"momo-checkout/internal/domain/model"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestPool_RunsSubmittedTasks(t *testing.T) {
	p := NewPool(2, 8, newTestLogger())
	p.Start(context.Background())

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		if err := p.Submit(func(context.Context) error {
			defer wg.Done()
			ran.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()
	p.Stop()
	if ran.Load() != 5 {
		t.Errorf("expected 5 tasks run, got %d", ran.Load())
	}
}

func TestPool_SubmitFullQueue(t *testing.T) {
	p := NewPool(1, 1, newTestLogger())
	// Not started, so the single buffer slot fills up.
	if err := p.Submit(func(context.Context) error { return nil }); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if err := p.Submit(func(context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestPool_StopDrainsQueue(t *testing.T) {
	p := NewPool(1, 4, newTestLogger())
	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		_ = p.Submit(func(context.Context) error { ran.Add(1); return errors.New("boom") })
	}
	p.Start(context.Background())
	p.Stop()
	if ran.Load() != 3 {
		t.Errorf("expected queued tasks to run on stop, got %d", ran.Load())
	}
	if err := p.Submit(func(context.Context) error { return nil }); err == nil {
		t.Error("expected Submit after Stop to fail")
	}
	p.Stop()
}

func TestPool_NilTask(t *testing.T) {
	p := NewPool(1, 1, newTestLogger())
	if err := p.Submit(nil); err == nil {
		t.Error("expected error for nil task")
	}
}

type mockNotifier struct {
	mu       sync.Mutex
	receipts []model.PaymentReceipt
	deadline bool

	NotifyFunc func(ctx context.Context, r model.PaymentReceipt) error
}

func (m *mockNotifier) NotifyPaymentSucceeded(ctx context.Context, r model.PaymentReceipt) error {
	m.mu.Lock()
	m.receipts = append(m.receipts, r)
	_, m.deadline = ctx.Deadline()
	m.mu.Unlock()
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, r)
	}
	return nil
}

func TestQueuedNotifier_DeliversInBackground(t *testing.T) {
	p := NewPool(1, 4, newTestLogger())
	p.Start(context.Background())
	next := &mockNotifier{}
	q := NewQueuedNotifier(next, p, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	err := q.NotifyPaymentSucceeded(ctx, model.PaymentReceipt{TransactionID: "tx-1", Amount: 5000})
	cancel()
	if err != nil {
		t.Fatalf("NotifyPaymentSucceeded: %v", err)
	}
	p.Stop()

	next.mu.Lock()
	defer next.mu.Unlock()
	if len(next.receipts) != 1 || next.receipts[0].TransactionID != "tx-1" {
		t.Fatalf("expected tx-1 delivered once, got %+v", next.receipts)
	}
	if !next.deadline {
		t.Error("expected delivery ctx to carry the notify timeout")
	}
}

func TestQueuedNotifier_DropsWhenSaturated(t *testing.T) {
	p := NewPool(1, 1, newTestLogger())
	q := NewQueuedNotifier(&mockNotifier{}, p, 0)
	if err := q.NotifyPaymentSucceeded(context.Background(), model.PaymentReceipt{}); err != nil {
		t.Fatalf("first notify: %v", err)
	}
	if err := q.NotifyPaymentSucceeded(context.Background(), model.PaymentReceipt{}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if q.timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", q.timeout)
	}
}

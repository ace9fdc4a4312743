package worker

import (
	"context"
	"time"

	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
	"momo-checkout/internal/infra/metrics"
)

var _ adapter.Notifier = (*QueuedNotifier)(nil)

// QueuedNotifier hands receipts to a pool so slow delivery never holds up
// the status poller that reported the payment.
type QueuedNotifier struct {
	next    adapter.Notifier
	pool    *Pool
	timeout time.Duration
}

func NewQueuedNotifier(next adapter.Notifier, pool *Pool, timeout time.Duration) *QueuedNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QueuedNotifier{next: next, pool: pool, timeout: timeout}
}

// NotifyPaymentSucceeded enqueues delivery. The caller's ctx is not carried
// into the task because it usually ends before the worker picks it up.
func (q *QueuedNotifier) NotifyPaymentSucceeded(_ context.Context, receipt model.PaymentReceipt) error {
	err := q.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, q.timeout)
		defer cancel()
		return q.next.NotifyPaymentSucceeded(ctx, receipt)
	})
	if err != nil {
		metrics.IncNotify("queue", "dropped")
		return err
	}
	metrics.IncNotify("queue", "queued")
	return nil
}

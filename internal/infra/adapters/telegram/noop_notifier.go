package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
	"momo-checkout/internal/infra/metrics"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs receipts instead of sending them. Used when no bot token is configured.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: logger}
}

func (n *NoopNotifier) NotifyPaymentSucceeded(ctx context.Context, r model.PaymentReceipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	metrics.IncNotify("noop", "sent")
	n.log.Info().
		Str("transaction_id", r.TransactionID).
		Str("plan", r.PlanSlug).
		Int64("amount", r.Amount).
		Str("carrier", string(r.Carrier)).
		Msg("[noop-notifier] payment succeeded")
	return nil
}

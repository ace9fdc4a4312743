package adapter

import (
	"context"

	"momo-checkout/internal/domain/model"
)

// Notifier tells operators about completed payments.
type Notifier interface {
	NotifyPaymentSucceeded(ctx context.Context, receipt model.PaymentReceipt) error
}

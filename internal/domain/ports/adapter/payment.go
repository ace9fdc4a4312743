package adapter

import (
	"context"
	"fmt"

	"momo-checkout/internal/domain/model"
)

// GenericPaymentFailure is used when the backend rejects a payment without saying why.
const GenericPaymentFailure = "Payment failed"

// GatewayError is a failure reported by the payment backend itself (non-2xx response).
// Message is taken from the body's "error" field when present.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment backend returned %d: %s", e.StatusCode, e.Message)
}

// PaymentAPI is the hex port for the backend that fronts the mobile-money provider.
type PaymentAPI interface {
	Name() string

	// ValidatePromo asks the backend to price a promo code against a plan.
	ValidatePromo(ctx context.Context, code, planSlug string) (model.PromoResult, error)
	// Initiate starts a collection and returns the backend transaction id.
	// Server-reported failures are returned as *GatewayError.
	Initiate(ctx context.Context, req model.PaymentRequest) (transactionID string, err error)
	// Status returns the raw remote status of a transaction.
	Status(ctx context.Context, transactionID string) (string, error)
}

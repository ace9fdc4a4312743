package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
	"momo-checkout/internal/infra/metrics"
)

// PromoValidator prices a promo code against a plan. It never fails: promo codes
// are optional, so any transport or decode problem becomes an invalid result.
type PromoValidator struct {
	api adapter.PaymentAPI
	log *zerolog.Logger
}

func NewPromoValidator(api adapter.PaymentAPI, logger *zerolog.Logger) *PromoValidator {
	return &PromoValidator{api: api, log: logger}
}

// Validate expects a non-blank, trimmed code. One request, no retries.
func (v *PromoValidator) Validate(ctx context.Context, code string, plan model.Plan) model.PromoResult {
	res, err := v.api.ValidatePromo(ctx, code, plan.Slug)
	if err != nil {
		metrics.IncPromoValidation("error")
		v.log.Warn().Err(err).Str("plan", plan.Slug).Msg("promo validation failed")
		return model.FailedPromo(plan.Amount)
	}
	res = res.Normalize(plan.Amount)
	if res.Valid {
		metrics.IncPromoValidation("valid")
	} else {
		metrics.IncPromoValidation("invalid")
	}
	v.log.Debug().
		Str("plan", plan.Slug).
		Bool("valid", res.Valid).
		Int64("discount", res.DiscountAmount).
		Str("reason", res.Reason).
		Msg("promo validated")
	return res
}

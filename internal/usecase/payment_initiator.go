package usecase

import (
	"errors"
	"strings"

	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
)

// paymentIntent is what the session knows at submit time.
type paymentIntent struct {
	plan       model.Plan
	phone      string
	promoCode  string
	promo      *model.PromoResult
	promoFor   string // trimmed code the stored promo result was computed for
	gateway    string
	jobID      string
	addOnSlugs []string
}

// buildPaymentRequest assembles the outbound body. The promo code is only sent
// when the stored result is valid and belongs to the code currently entered, so a
// rejected, stale or never-checked code is never forwarded.
func buildPaymentRequest(in paymentIntent) model.PaymentRequest {
	req := model.PaymentRequest{
		PlanSlug:    in.plan.Slug,
		PhoneNumber: model.NormalizePhone(in.phone),
		Gateway:     strings.TrimSpace(in.gateway),
		JobID:       strings.TrimSpace(in.jobID),
	}
	code := strings.TrimSpace(in.promoCode)
	if code != "" && in.promo != nil && in.promo.Valid && in.promoFor == code {
		req.PromoCode = code
	}
	if len(in.addOnSlugs) > 0 {
		req.AddOnSlugs = append([]string(nil), in.addOnSlugs...)
	}
	return req
}

// chargeFor records the amount the backend will collect for req: the promo price
// only when the code went out with it.
func chargeFor(plan model.Plan, promo *model.PromoResult, req model.PaymentRequest, phone string) Charge {
	c := Charge{
		Amount:  plan.Amount,
		Phone:   req.PhoneNumber,
		Carrier: model.DetectCarrier(phone),
	}
	if req.PromoCode != "" && promo != nil && promo.Valid {
		c.Amount = promo.FinalAmount
		c.PromoCode = req.PromoCode
	}
	return c
}

// initiationFailure maps an Initiate error to the text shown to the customer and
// a bounded metrics label. Backend-reported messages are passed through verbatim.
func initiationFailure(err error) (msg, result string) {
	var gwErr *adapter.GatewayError
	if errors.As(err, &gwErr) {
		if gwErr.Message == "" {
			return adapter.GenericPaymentFailure, "rejected"
		}
		return gwErr.Message, "rejected"
	}
	return MsgSomethingWentWrong, "transport_error"
}

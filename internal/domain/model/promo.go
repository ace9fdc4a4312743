package model

// PromoReasonValidationFailed is reported when the promo service could not be reached
// or returned something unreadable.
const PromoReasonValidationFailed = "Validation failed"

// PromoResult is the discount computed by the promo service for one code and plan.
type PromoResult struct {
	Valid          bool   `json:"valid"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalAmount    int64  `json:"final_amount"`
	Reason         string `json:"reason,omitempty"`
}

// Normalize makes a result from an untrusted source consistent with the plan
// amount: an invalid result never carries a discount, and a valid one always
// satisfies FinalAmount = planAmount - DiscountAmount.
func (r PromoResult) Normalize(planAmount int64) PromoResult {
	if !r.Valid {
		return PromoResult{
			Valid:       false,
			FinalAmount: planAmount,
			Reason:      r.Reason,
		}
	}
	d := r.DiscountAmount
	if d < 0 {
		d = 0
	}
	if d > planAmount {
		d = planAmount
	}
	return PromoResult{
		Valid:          true,
		DiscountAmount: d,
		FinalAmount:    planAmount - d,
	}
}

// FailedPromo is the result used in place of a transport or decode error.
func FailedPromo(planAmount int64) PromoResult {
	return PromoResult{
		Valid:       false,
		FinalAmount: planAmount,
		Reason:      PromoReasonValidationFailed,
	}
}

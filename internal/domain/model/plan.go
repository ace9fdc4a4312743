package model

import (
	"strings"

	"momo-checkout/internal/domain"
)

// Plan is a purchasable offer. Amount is in XAF, which has no subunit,
// so it is a plain count of francs.
type Plan struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Amount       int64  `json:"amount"`
	DurationDays *int   `json:"duration_days,omitempty"`
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan.
func NewPlan(id, slug, name string, amount int64, durationDays *int) (*Plan, error) {
	if id == "" || strings.TrimSpace(slug) == "" || name == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if durationDays != nil && *durationDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:           id,
		Slug:         strings.TrimSpace(slug),
		Name:         name,
		Amount:       amount,
		DurationDays: durationDays,
	}, nil
}

const CurrencyXAF = "XAF"

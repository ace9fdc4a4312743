package repository

import (
	"context"

	"momo-checkout/internal/domain/model"
)

// PlanRepository is the read-only port for the plan catalog.
type PlanRepository interface {
	FindBySlug(ctx context.Context, slug string) (*model.Plan, error)
	ListActive(ctx context.Context) ([]*model.Plan, error)
}

//go:build !integration

package memory

import (
	"context"
	"errors"
	"testing"

	"momo-checkout/internal/domain"
	"momo-checkout/internal/domain/model"
)

func TestPlanRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepo(
		&model.Plan{ID: "p2", Slug: "premium", Amount: 5000},
		&model.Plan{ID: "p1", Slug: "basic", Amount: 2000},
	)

	p, err := repo.FindBySlug(ctx, "premium")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	p.Amount = 1 // callers get copies
	again, _ := repo.FindBySlug(ctx, "premium")
	if again.Amount != 5000 {
		t.Error("repository state leaked through returned pointer")
	}

	if _, err := repo.FindBySlug(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	plans, _ := repo.ListActive(ctx)
	if len(plans) != 2 || plans[0].Slug != "basic" {
		t.Errorf("expected plans sorted by amount, got %+v", plans)
	}
}

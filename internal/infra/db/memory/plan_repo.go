package memory

import (
	"context"
	"sort"
	"sync"

	"momo-checkout/internal/domain"
	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

// PlanRepo is a fixed in-memory catalog for the demo command and tests.
type PlanRepo struct {
	mu     sync.RWMutex
	bySlug map[string]*model.Plan
}

func NewPlanRepo(plans ...*model.Plan) *PlanRepo {
	r := &PlanRepo{bySlug: make(map[string]*model.Plan, len(plans))}
	for _, p := range plans {
		r.Put(p)
	}
	return r
}

func (r *PlanRepo) Put(p *model.Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.bySlug[p.Slug] = &cp
}

func (r *PlanRepo) FindBySlug(ctx context.Context, slug string) (*model.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.bySlug[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PlanRepo) ListActive(ctx context.Context) ([]*model.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Plan, 0, len(r.bySlug))
	for _, p := range r.bySlug {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount < out[j].Amount
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

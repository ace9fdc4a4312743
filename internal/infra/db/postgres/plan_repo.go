package postgres

import (
	"context"
	"errors"
	"fmt"

	"momo-checkout/internal/domain"
	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*PlanRepo)(nil)

// PlanRepo reads the plan catalog owned by the job marketplace backend.
type PlanRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

func (r *PlanRepo) FindBySlug(ctx context.Context, slug string) (*model.Plan, error) {
	const sql = `
SELECT id, slug, name, amount, duration_days
  FROM plans
 WHERE slug = $1 AND is_active;
`
	row := r.pool.QueryRow(ctx, sql, slug)
	p, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindBySlug plan: %w", err)
	}
	return p, nil
}

func (r *PlanRepo) ListActive(ctx context.Context) ([]*model.Plan, error) {
	const sql = `
SELECT id, slug, name, amount, duration_days
  FROM plans
 WHERE is_active
 ORDER BY amount ASC, slug ASC;
`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("ListActive plans: %w", err)
	}
	defer rows.Close()

	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive plans: %w", err)
	}
	return out, nil
}

// Upsert writes a plan keyed by slug and marks it active. Only the seed command
// writes to the catalog.
func (r *PlanRepo) Upsert(ctx context.Context, p *model.Plan) error {
	const sql = `
INSERT INTO plans (id, slug, name, amount, duration_days, is_active)
VALUES ($1, $2, $3, $4, $5, TRUE)
ON CONFLICT (slug) DO UPDATE
   SET name = EXCLUDED.name,
       amount = EXCLUDED.amount,
       duration_days = EXCLUDED.duration_days,
       is_active = TRUE;
`
	var days *int32
	if p.DurationDays != nil {
		d := int32(*p.DurationDays)
		days = &d
	}
	if _, err := r.pool.Exec(ctx, sql, p.ID, p.Slug, p.Name, p.Amount, days); err != nil {
		return fmt.Errorf("Upsert plan %s: %w", p.Slug, err)
	}
	return nil
}

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var (
		p    model.Plan
		days *int32
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Amount, &days); err != nil {
		return nil, err
	}
	if days != nil {
		d := int(*days)
		p.DurationDays = &d
	}
	return &p, nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/repository"
	"momo-checkout/internal/infra/metrics"
)

var _ repository.PlanRepository = (*planCacheDecorator)(nil)

const planListKey = "plans:active"

// planCacheDecorator fronts the plan catalog with Redis. Cache errors degrade
// to a read from the inner repository.
type planCacheDecorator struct {
	inner repository.PlanRepository
	cache RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewPlanCacheDecorator(inner repository.PlanRepository, cache RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.PlanRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &planCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func planKey(slug string) string { return "plan:" + slug }

func (d *planCacheDecorator) FindBySlug(ctx context.Context, slug string) (*model.Plan, error) {
	key := planKey(slug)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var plan model.Plan
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncCacheRequest(metrics.CachePlan, metrics.CacheHit)
			return &plan, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		metrics.IncCacheRequest(metrics.CachePlan, metrics.CacheError)
		d.log.Warn().Err(err).Str("key", key).Msg("plan cache read failed")
	}

	metrics.IncCacheRequest(metrics.CachePlan, metrics.CacheMiss)
	plan, err := d.inner.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		b, _ := json.Marshal(plan)
		if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Str("key", key).Msg("plan cache write failed")
		}
	}
	return plan, nil
}

func (d *planCacheDecorator) ListActive(ctx context.Context) ([]*model.Plan, error) {
	val, err := d.cache.Get(ctx, planListKey)
	if err == nil {
		var plans []*model.Plan
		if json.Unmarshal([]byte(val), &plans) == nil {
			metrics.IncCacheRequest(metrics.CachePlanList, metrics.CacheHit)
			return plans, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		metrics.IncCacheRequest(metrics.CachePlanList, metrics.CacheError)
		d.log.Warn().Err(err).Str("key", planListKey).Msg("plan cache read failed")
	}

	metrics.IncCacheRequest(metrics.CachePlanList, metrics.CacheMiss)
	plans, err := d.inner.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		b, _ := json.Marshal(plans)
		if err := d.cache.Set(ctx, planListKey, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Str("key", planListKey).Msg("plan cache write failed")
		}
	}
	return plans, nil
}

// Invalidate drops cached plan entries, e.g. after the catalog was edited elsewhere.
func Invalidate(ctx context.Context, cache RedisClient, slugs ...string) error {
	keys := []string{planListKey}
	for _, s := range slugs {
		keys = append(keys, planKey(s))
	}
	return cache.Del(ctx, keys...)
}

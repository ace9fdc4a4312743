package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"momo-checkout/internal/config"
	"momo-checkout/internal/domain/model"
	pg "momo-checkout/internal/infra/db/postgres"
	"momo-checkout/internal/infra/logging"
	red "momo-checkout/internal/infra/redis"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, true)
	if cfg.Database.URL == "" {
		logger.Fatal().Msg("database.url is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	cfg.Database.MaxConns = 2
	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	repo := pg.NewPlanRepo(pool)

	// Sample plans for exercising the checkout flow.
	month, quarter := 30, 90
	seed := []*model.Plan{
		{ID: "plan-basic", Slug: "basic", Name: "Basic", Amount: 1500, DurationDays: &month},
		{ID: "plan-premium", Slug: "premium", Name: "Premium", Amount: 5000, DurationDays: &month},
		{ID: "plan-premium-q", Slug: "premium-quarter", Name: "Premium (3 months)", Amount: 13500, DurationDays: &quarter},
		{ID: "plan-featured-job", Slug: "featured-job", Name: "Featured job listing", Amount: 2500},
	}
	slugs := make([]string, 0, len(seed))
	for _, p := range seed {
		if err := repo.Upsert(ctx, p); err != nil {
			logger.Fatal().Err(err).Msg("seed plan")
		}
		slugs = append(slugs, p.Slug)
		fmt.Printf("seeded: %s (slug=%s, amount=%d %s)\n", p.Name, p.Slug, p.Amount, model.CurrencyXAF)
	}

	// Drop cached copies so the service sees the new prices immediately.
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; cached plans expire on their own")
		} else {
			defer rc.Close()
			if err := red.Invalidate(ctx, rc, slugs...); err != nil {
				logger.Warn().Err(err).Msg("invalidate plan cache")
			}
		}
	}

	fmt.Println("Seeding complete.")
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"momo-checkout/internal/config"
	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
	"momo-checkout/internal/domain/ports/repository"
	payAdapters "momo-checkout/internal/infra/adapters/payment"
	tele "momo-checkout/internal/infra/adapters/telegram"
	"momo-checkout/internal/infra/api"
	"momo-checkout/internal/infra/db/memory"
	pg "momo-checkout/internal/infra/db/postgres"
	"momo-checkout/internal/infra/logging"
	"momo-checkout/internal/infra/metrics"
	red "momo-checkout/internal/infra/redis"
	"momo-checkout/internal/infra/sched"
	"momo-checkout/internal/infra/worker"
	"momo-checkout/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted phones)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Plan catalog ----
	var plans repository.PlanRepository
	switch {
	case cfg.Database.URL != "":
		pool, err := pg.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		go reportPoolStats(ctx, pool)
		plans = pg.NewPlanRepo(pool)
	case cfg.Gateway.Sandbox:
		logger.Warn().Msg("database.url not set; using built-in sandbox plans")
		plans = sandboxPlans()
	default:
		logger.Fatal().Msg("database.url is required outside sandbox mode")
	}

	// ---- Redis plan cache ----
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		plans = red.NewPlanCacheDecorator(plans, redisClient, cfg.Redis.TTL, logger)
	}

	// ---- Payment backend ----
	var gateway adapter.PaymentAPI
	if cfg.Gateway.Sandbox {
		sb := payAdapters.NewSandboxPaymentAPI(plans, cfg.Gateway.SandboxPending)
		sb.Promos["SAVE10"] = payAdapters.SandboxPromo{Discount: 500}
		sb.Promos["EXPIRED"] = payAdapters.SandboxPromo{Reason: "Expired"}
		gateway = sb
	} else {
		gateway, err = payAdapters.NewHTTPPaymentAPI(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("payment gateway")
		}
	}
	logger.Info().Str("gateway", gateway.Name()).Msg("payment backend ready")

	// ---- Notifier ----
	var notifier adapter.Notifier = tele.NewNoopNotifier(logger)
	if cfg.Notify.Telegram.Token != "" {
		tg, err := tele.NewNotifier(cfg.Notify.Telegram, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier")
		}
		notifier = tg
	}
	notifyPool := worker.NewPool(cfg.Notify.Workers, cfg.Notify.Queue, logger)
	notifyPool.Start(ctx)
	notifier = worker.NewQueuedNotifier(notifier, notifyPool, cfg.Notify.Timeout)

	// ---- Use case ----
	checkoutUC := usecase.NewCheckoutUseCase(plans, gateway, notifier, usecase.CheckoutOptions{
		Policy: usecase.PollPolicy{
			Interval:    cfg.Gateway.PollInterval,
			MaxAttempts: cfg.Gateway.MaxPollAttempts,
		},
		IdleTTL: cfg.Session.IdleTTL,
		Dev:     cfg.Runtime.Dev,
	}, logger)

	// ---- Idle session sweeper ----
	sweeper := sched.NewSessionSweeper(checkoutUC, cfg.Session.SweepInterval, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- HTTP server ----
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           api.NewRouter(checkoutUC, cfg.HTTP.RequestTimeout, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	checkoutUC.Shutdown()
	notifyPool.Stop()
	cancel()
}

func reportPoolStats(ctx context.Context, pool *pgxpool.Pool) {
	t := time.NewTicker(15 * time.Second)
	defer t.Stop()
	for {
		s := pool.Stat()
		metrics.SetDBPoolStats(s.TotalConns(), s.IdleConns(), s.AcquiredConns())
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func sandboxPlans() *memory.PlanRepo {
	month := 30
	return memory.NewPlanRepo(
		&model.Plan{ID: "plan-basic", Slug: "basic", Name: "Basic", Amount: 1500, DurationDays: &month},
		&model.Plan{ID: "plan-premium", Slug: "premium", Name: "Premium", Amount: 5000, DurationDays: &month},
	)
}

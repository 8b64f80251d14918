package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/buda-bot/internal/bot"
	"github.com/Proton-105/buda-bot/internal/health"
	"github.com/Proton-105/buda-bot/internal/i18n"
	"github.com/Proton-105/buda-bot/internal/inline"
	"github.com/Proton-105/buda-bot/internal/lifecycle"
	"github.com/Proton-105/buda-bot/internal/market"
	"github.com/Proton-105/buda-bot/internal/middleware"
	"github.com/Proton-105/buda-bot/internal/ops"
	"github.com/Proton-105/buda-bot/internal/ratelimit"
	"github.com/Proton-105/buda-bot/pkg/config"
	"github.com/Proton-105/buda-bot/pkg/graceful"
	"github.com/Proton-105/buda-bot/pkg/logger"
	"github.com/Proton-105/buda-bot/pkg/redis"
)

const sentryFlushTimeout = 2 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "buda-bot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: sentryEnvironment(cfg),
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(sentryFlushTimeout)
	}

	logs := logger.New(cfg.Log, cfg.Sentry)
	defer func() { _ = logs.Close() }()
	log := logs.Logger
	slog.SetDefault(log)

	config.Watch(v, log, func(updated *config.Config) {
		logs.SetLevel(updated.Log.Level)
	})

	log.Info("starting buda bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("market_base_url", cfg.Market.BaseURL),
	)

	catalog, err := i18n.Load(cfg.Bot.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("load message catalogs: %w", err)
	}

	shutdown := lifecycle.NewShutdown(log)
	checker := health.NewChecker(log)

	rateLimit, err := setupRateLimit(ctx, cfg, checker, shutdown, log)
	if err != nil {
		return err
	}

	b, err := bot.New(*cfg, bot.Dependencies{
		Prices:    market.NewClient(cfg.Market, nil, log),
		Catalog:   catalog,
		Inline:    inline.NewProvider(),
		RateLimit: rateLimit,
	}, log)
	if err != nil {
		return err
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))

	opsDone := make(chan error, 1)
	if cfg.Server.Enabled {
		srv := graceful.NewServer(cfg.Server.Port, ops.NewHandler(checker, log), cfg.Server.ShutdownTimeout, log)
		go func() {
			err := srv.ListenAndServe(ctx)
			if err != nil {
				log.Error("ops server stopped", slog.Any("error", err))
			}
			opsDone <- err
		}()
		shutdown.Register("ops-server", func(ctx context.Context) error {
			select {
			case err := <-opsDone:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	go b.Start()
	shutdown.Register("telegram-bot", lifecycle.StopFunc(b.Stop))

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return shutdown.Execute(shutdownCtx)
}

// setupRateLimit returns nil when rate limiting is disabled. With Redis configured the
// limiter is shared across replicas and falls back to memory while Redis is down.
func setupRateLimit(
	ctx context.Context,
	cfg *config.Config,
	checker *health.Checker,
	shutdown *lifecycle.Shutdown,
	log *slog.Logger,
) (*middleware.RateLimitMiddleware, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}

	memory := ratelimit.NewMemoryLimiter(log)
	var limiter ratelimit.Limiter = memory
	sweepers := []ratelimit.Sweeper{memory}

	if cfg.RedisEnabled() {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		shutdown.Register("redis", client.Shutdown)
		checker.AddCheck("redis", health.NewRedisChecker(client.Raw()))

		redisLimiter := ratelimit.NewRedisLimiter(client.Raw(), log)
		limiter = ratelimit.NewAdaptiveLimiter(redisLimiter, memory, log)
		sweepers = append(sweepers, redisLimiter)
	}

	rules := ratelimit.NewRules(cfg.RateLimit, bot.PriceCommandNames()...)

	cleanerCtx, stopCleaner := context.WithCancel(ctx)
	cleaner := ratelimit.NewCleaner(log, cfg.RateLimit.CleanupInterval, rules.LongestWindow(), sweepers...)
	go cleaner.Run(cleanerCtx)
	shutdown.Register("ratelimit-cleaner", func(context.Context) error {
		stopCleaner()
		return nil
	})

	return middleware.NewRateLimitMiddleware(limiter, rules, log), nil
}

func sentryEnvironment(cfg *config.Config) string {
	if cfg.Sentry.Environment != "" {
		return cfg.Sentry.Environment
	}
	return cfg.AppEnv
}

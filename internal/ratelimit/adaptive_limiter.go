package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Proton-105/buda-bot/pkg/metrics"
)

const (
	backendRedis  = "redis"
	backendMemory = "memory"
)

// AdaptiveLimiter delegates to Redis and falls back to a stricter in-memory
// limiter while Redis is failing. Rejections are reported as ErrLimitExceeded
// regardless of the backend that produced them.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) *AdaptiveLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &AdaptiveLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

func (a *AdaptiveLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	result, err := a.primary.Check(ctx, key, limit, window)
	if err == nil || errors.Is(err, ErrLimitExceeded) {
		return settle(backendRedis, result, err)
	}

	metrics.RecordRateLimitBackendError(backendRedis)
	a.log.Warn("redis limiter failed, falling back to in-memory", slog.String("key", key), slog.Any("error", err))

	fallbackLimit := limit / 2
	if fallbackLimit <= 0 {
		fallbackLimit = 1
	}

	result, err = a.fallback.Check(ctx, key, fallbackLimit, window)
	if err != nil && !errors.Is(err, ErrLimitExceeded) {
		metrics.RecordRateLimitBackendError(backendMemory)
		return nil, err
	}

	return settle(backendMemory, result, err)
}

func settle(backend string, result *Result, err error) (*Result, error) {
	allowed := err == nil && result != nil && result.Allowed
	metrics.RecordRateLimitCheck(backend, allowed)

	if !allowed {
		return result, ErrLimitExceeded
	}
	return result, nil
}

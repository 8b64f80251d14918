package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/Proton-105/buda-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/buda-bot/internal/errors"
	"github.com/Proton-105/buda-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-user and per-command limits on dispatched commands.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// Handle is a router middleware, so it only sees commands the bot actually dispatches.
// Inline queries pass through uncounted. A throttled command returns a rate-limit AppError
// and the error middleware decides whether the user hears about it.
func (m *RateLimitMiddleware) Handle(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		if m.limiter == nil || m.rules == nil || c.Query() != nil {
			return next(c)
		}

		cmd, ok := handlers.ParseCommand(c.Text())
		sender := c.Sender()
		if !ok || sender == nil || m.rules.IsWhitelisted(sender.ID) {
			return next(c)
		}

		ctx := handlers.RequestContext(c)
		userID := sender.ID

		allowed, retryAfter := m.check(ctx, userID, fmt.Sprintf("user:%d", userID), m.rules.GetPerUserLimit)
		if allowed {
			allowed, retryAfter = m.check(ctx, userID, fmt.Sprintf("user:%d:cmd:%s", userID, cmd.Name), func() (int, time.Duration, error) {
				return m.rules.GetCommandLimit(cmd.Name)
			})
		}

		if allowed {
			return next(c)
		}

		m.log.DebugContext(ctx, "rate limit exceeded",
			slog.Int64("user_id", userID),
			slog.String("command", cmd.Name),
			slog.Duration("retry_after", retryAfter),
		)

		return apperrors.NewRateLimitError(int(math.Ceil(retryAfter.Seconds())))
	}
}

// check fails open: a missing rule or a broken limiter lets the update through.
func (m *RateLimitMiddleware) check(ctx context.Context, userID int64, key string, rule func() (int, time.Duration, error)) (bool, time.Duration) {
	limit, window, err := rule()
	if err != nil {
		if !errors.Is(err, ratelimit.ErrNoRule) {
			m.log.ErrorContext(ctx, "invalid rate limit rule", slog.String("key", key), slog.Any("error", err))
		}
		return true, 0
	}

	result, err := m.limiter.Check(ctx, key, limit, window)
	switch {
	case errors.Is(err, ratelimit.ErrLimitExceeded):
		return false, result.RetryAfter(time.Now())
	case err != nil:
		m.log.WarnContext(ctx, "rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
		return true, 0
	case result != nil && !result.Allowed:
		return false, result.RetryAfter(time.Now())
	default:
		return true, 0
	}
}

package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/buda-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/buda-bot/internal/errors"
	"github.com/Proton-105/buda-bot/internal/ratelimit"
	"github.com/Proton-105/buda-bot/internal/testutil"
	"github.com/Proton-105/buda-bot/pkg/config"
)

type failingLimiter struct{}

func (failingLimiter) Check(context.Context, string, int, time.Duration) (*ratelimit.Result, error) {
	return nil, errors.New("redis down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRateLimit(t *testing.T, limiter ratelimit.Limiter, cfg config.RateLimitConfig) (*RateLimitMiddleware, *int) {
	t.Helper()

	mw := NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg, "price", "budda", "btc", "ltc"), discardLogger())
	calls := new(int)
	return mw, calls
}

func countingHandler(calls *int) handlers.Handler {
	return func(telebot.Context) error {
		*calls++
		return nil
	}
}

func assertRateLimited(t *testing.T, err error) {
	t.Helper()

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeRateLimited, appErr.Code)
}

func TestRateLimitMiddleware_PerUser(t *testing.T) {
	mw, calls := newTestRateLimit(t, ratelimit.NewMemoryLimiter(discardLogger()), config.RateLimitConfig{
		PerUser: config.RateLimitRule{Limit: 2, Window: "1m"},
	})
	h := mw.Handle(countingHandler(calls))

	for i := 0; i < 2; i++ {
		require.NoError(t, h(testutil.NewMessageContext(1, "en", "/start")))
	}

	c := testutil.NewMessageContext(1, "en", "/start")
	assertRateLimited(t, h(c))

	assert.Equal(t, 2, *calls)
	assert.Empty(t, c.Sent(), "the error middleware owns the reply")

	require.NoError(t, h(testutil.NewMessageContext(2, "en", "/start")))
	assert.Equal(t, 3, *calls, "other users are not affected")
}

func TestRateLimitMiddleware_PriceCommands(t *testing.T) {
	mw, calls := newTestRateLimit(t, ratelimit.NewMemoryLimiter(discardLogger()), config.RateLimitConfig{
		PerUser:  config.RateLimitRule{Limit: 100, Window: "1m"},
		Commands: config.CommandRateLimits{Price: config.RateLimitRule{Limit: 1, Window: "1m"}},
	})
	h := mw.Handle(countingHandler(calls))

	require.NoError(t, h(testutil.NewMessageContext(1, "en", "/price btc")))
	assertRateLimited(t, h(testutil.NewMessageContext(1, "en", "/price eth")))
	require.NoError(t, h(testutil.NewMessageContext(1, "en", "/btc")))
	assertRateLimited(t, h(testutil.NewMessageContext(1, "en", "/btc")))
	require.NoError(t, h(testutil.NewMessageContext(1, "en", "/help")))

	assert.Equal(t, 3, *calls)
}

func TestRateLimitMiddleware_InlineQueriesAreNotCounted(t *testing.T) {
	mw, calls := newTestRateLimit(t, ratelimit.NewMemoryLimiter(discardLogger()), config.RateLimitConfig{
		PerUser: config.RateLimitRule{Limit: 1, Window: "1m"},
	})
	h := mw.Handle(countingHandler(calls))

	query := ""
	for i := 0; i < 20; i++ {
		query += "a"
		require.NoError(t, h(testutil.NewQueryContext(1, "en", query)))
	}

	require.NoError(t, h(testutil.NewMessageContext(1, "en", "/btc")))
	assert.Equal(t, 21, *calls)
}

func TestRateLimitMiddleware_Whitelist(t *testing.T) {
	mw, calls := newTestRateLimit(t, ratelimit.NewMemoryLimiter(discardLogger()), config.RateLimitConfig{
		PerUser:   config.RateLimitRule{Limit: 1, Window: "1m"},
		Whitelist: []int64{9},
	})
	h := mw.Handle(countingHandler(calls))

	for i := 0; i < 5; i++ {
		require.NoError(t, h(testutil.NewMessageContext(9, "en", "/btc")))
	}
	assert.Equal(t, 5, *calls)
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	mw, calls := newTestRateLimit(t, failingLimiter{}, config.RateLimitConfig{
		PerUser: config.RateLimitRule{Limit: 1, Window: "1m"},
	})
	h := mw.Handle(countingHandler(calls))

	require.NoError(t, h(testutil.NewMessageContext(1, "en", "/btc")))
	require.NoError(t, h(testutil.NewMessageContext(1, "en", "/btc")))
	assert.Equal(t, 2, *calls)

	mw, calls = newTestRateLimit(t, ratelimit.NewMemoryLimiter(discardLogger()), config.RateLimitConfig{
		PerUser: config.RateLimitRule{Limit: 1, Window: "forever"},
	})
	h = mw.Handle(countingHandler(calls))

	require.NoError(t, h(testutil.NewMessageContext(1, "en", "/btc")))
	require.NoError(t, h(testutil.NewMessageContext(1, "en", "/btc")))
	assert.Equal(t, 2, *calls)
}

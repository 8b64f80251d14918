package bot

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/buda-bot/internal/i18n"
	"github.com/Proton-105/buda-bot/internal/market"
	"github.com/Proton-105/buda-bot/internal/middleware"
	"github.com/Proton-105/buda-bot/internal/ratelimit"
	"github.com/Proton-105/buda-bot/internal/testutil"
	"github.com/Proton-105/buda-bot/pkg/config"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchLastPrice(ctx context.Context, marketID string) (string, error) {
	args := m.Called(ctx, marketID)
	return args.String(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBot(t *testing.T, fetcher *mockFetcher, replyOnError bool, log *slog.Logger) *Bot {
	t.Helper()
	return newTestBotWithRateLimit(t, fetcher, replyOnError, nil, log)
}

func newTestBotWithRateLimit(t *testing.T, fetcher *mockFetcher, replyOnError bool, rateLimit *middleware.RateLimitMiddleware, log *slog.Logger) *Bot {
	t.Helper()

	catalog, err := i18n.Load("en")
	require.NoError(t, err)

	cfg := config.Config{
		Bot: config.BotConfig{
			Token:           "123:test",
			Mode:            config.BotModePolling,
			Timeout:         time.Second,
			ReplyOnError:    replyOnError,
			DefaultLanguage: "en",
			Offline:         true,
		},
	}

	b, err := New(cfg, Dependencies{Prices: fetcher, Catalog: catalog, RateLimit: rateLimit}, log)
	require.NoError(t, err)
	return b
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(config.Config{Bot: config.BotConfig{Offline: true}}, Dependencies{}, discardLogger())
	assert.Error(t, err)
}

func TestBot_BTCReply(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("FetchLastPrice", mock.Anything, "btc-clp").Return("123.45", nil).Once()

	b := newTestBot(t, fetcher, true, discardLogger())
	c := testutil.NewMessageContext(1, "en", "/btc")

	require.NoError(t, b.Router().Route(c))
	assert.Equal(t, []string{"123.45"}, c.SentTexts())
	fetcher.AssertExpectations(t)
}

func TestBot_HTTPFailure(t *testing.T) {
	testCases := []struct {
		name         string
		replyOnError bool
		wantReplies  []string
	}{
		{name: "reply on error", replyOnError: true, wantReplies: []string{"The Buda market service is not responding right now. Please try again in a moment."}},
		{name: "silent", replyOnError: false, wantReplies: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := &mockFetcher{}
			fetcher.On("FetchLastPrice", mock.Anything, "btc-clp").
				Return("", &market.HTTPError{MarketID: "btc-clp", StatusCode: http.StatusInternalServerError}).Once()

			log, buf := testutil.NewLogger()
			b := newTestBot(t, fetcher, tc.replyOnError, log)
			c := testutil.NewMessageContext(1, "en", "/btc")

			require.NoError(t, b.Router().Route(c))
			assert.Equal(t, tc.wantReplies, c.SentTexts())

			errs := buf.AtLevel(t, "ERROR")
			require.Len(t, errs, 1)
			assert.Equal(t, "E301", errs[0]["code"])
			assert.NotEmpty(t, errs[0]["correlation_id"])
		})
	}
}

func TestBot_PriceCommand(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("FetchLastPrice", mock.Anything, "eth-clp").Return("2500000.0 CLP", nil).Once()

	b := newTestBot(t, fetcher, true, discardLogger())

	c := testutil.NewMessageContext(1, "en", "/price eth")
	require.NoError(t, b.Router().Route(c))
	assert.Equal(t, []string{"2500000.0 CLP"}, c.SentTexts())

	c = testutil.NewMessageContext(1, "en", "/price xrp")
	require.NoError(t, b.Router().Route(c))
	assert.Equal(t, []string{`Sorry, "xrp" is not supported. Try one of: btc, eth, ltc, bch`}, c.SentTexts())

	c = testutil.NewMessageContext(1, "es", "/budda")
	require.NoError(t, b.Router().Route(c))
	require.Len(t, c.SentTexts(), 1)
	assert.Contains(t, c.SentTexts()[0], "/budda btc")

	fetcher.AssertExpectations(t)
}

func TestBot_SilentUnsupportedSymbol(t *testing.T) {
	log, buf := testutil.NewLogger()
	b := newTestBot(t, &mockFetcher{}, false, log)

	c := testutil.NewMessageContext(1, "en", "/price xrp")
	require.NoError(t, b.Router().Route(c))

	assert.Empty(t, c.Sent())
	infos := buf.AtLevel(t, "INFO")
	var codes []any
	for _, rec := range infos {
		if rec["msg"] == "command failed" {
			codes = append(codes, rec["code"])
		}
	}
	assert.Equal(t, []any{"E102"}, codes)
}

func TestBot_PanicIsReported(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("FetchLastPrice", mock.Anything, "ltc-clp").Run(func(mock.Arguments) {
		panic("unexpected")
	})

	b := newTestBot(t, fetcher, true, discardLogger())
	c := testutil.NewMessageContext(1, "en", "/ltc")

	require.NoError(t, b.Router().Route(c))
	assert.Equal(t, []string{"Something went wrong. Please try again later."}, c.SentTexts())
}

func TestBot_InlineQuery(t *testing.T) {
	b := newTestBot(t, &mockFetcher{}, true, discardLogger())
	c := testutil.NewQueryContext(1, "en", "hola")

	require.NoError(t, b.Router().Route(c))
	require.Len(t, c.Answers(), 1)
	assert.Len(t, c.Answers()[0].Results, 3)
}

func perUserRateLimit(limit int) *middleware.RateLimitMiddleware {
	rules := ratelimit.NewRules(config.RateLimitConfig{
		PerUser: config.RateLimitRule{Limit: limit, Window: "1m"},
	}, PriceCommandNames()...)
	return middleware.NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(discardLogger()), rules, discardLogger())
}

func TestBot_RateLimitIgnoresUndispatchedUpdates(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("FetchLastPrice", mock.Anything, "btc-clp").Return("123.45", nil).Once()

	b := newTestBotWithRateLimit(t, fetcher, true, perUserRateLimit(1), discardLogger())

	query := ""
	for i := 0; i < 20; i++ {
		query += "x"
		c := testutil.NewQueryContext(1, "en", query)
		require.NoError(t, b.Router().Route(c))
		require.Len(t, c.Answers(), 1)
	}

	for _, text := range []string{"hello there", "/btc@other_bot", "/unknown"} {
		require.NoError(t, b.Router().Route(testutil.NewMessageContext(1, "en", text)))
	}

	c := testutil.NewMessageContext(1, "en", "/btc")
	require.NoError(t, b.Router().Route(c))
	assert.Equal(t, []string{"123.45"}, c.SentTexts())
	fetcher.AssertExpectations(t)
}

func TestBot_RateLimitReply(t *testing.T) {
	testCases := []struct {
		name         string
		replyOnError bool
		wantReplies  []string
	}{
		{name: "reply on error", replyOnError: true, wantReplies: []string{"Too many requests. Please slow down and try again in a minute."}},
		{name: "silent", replyOnError: false, wantReplies: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBotWithRateLimit(t, &mockFetcher{}, tc.replyOnError, perUserRateLimit(1), discardLogger())

			require.NoError(t, b.Router().Route(testutil.NewMessageContext(1, "en", "/start")))

			c := testutil.NewMessageContext(1, "en", "/help")
			require.NoError(t, b.Router().Route(c))
			assert.Equal(t, tc.wantReplies, c.SentTexts())
		})
	}
}

func TestPriceCommandNames(t *testing.T) {
	assert.ElementsMatch(t, []string{"price", "budda", "btc", "ltc"}, PriceCommandNames())
}

func TestMenu(t *testing.T) {
	catalog, err := i18n.Load("en")
	require.NoError(t, err)

	cmds := menu(catalog.Translator("en"))
	require.Len(t, cmds, len(menuCommands))
	assert.Equal(t, "start", cmds[0].Text)
	assert.Equal(t, "Say hello", cmds[0].Description)
	assert.Equal(t, "price", cmds[4].Text)
}

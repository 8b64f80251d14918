// Package market talks to the Buda.com public market-data API.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/Proton-105/buda-bot/pkg/config"
	"github.com/Proton-105/buda-bot/pkg/metrics"
)

const (
	DefaultBaseURL = "https://www.buda.com/api/v2"
	DefaultTimeout = 10 * time.Second

	tickerEndpoint = "/markets/{marketId}/ticker"
	maxBodyBytes   = 1 << 20
)

// Client fetches tickers. One call, one GET; nothing is cached or retried.
type Client struct {
	http    *resty.Client
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewClient builds a Client from configuration. A non-nil httpClient is used as the transport
// underneath resty; its timeout is replaced by cfg.Timeout.
func NewClient(cfg config.MarketConfig, httpClient *http.Client, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := resty.New()
	if httpClient != nil {
		client = resty.NewWithClient(httpClient)
	}

	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetRetryCount(0)
	client.SetResponseBodyLimit(maxBodyBytes)
	client.SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		http:    client,
		baseURL: baseURL,
		timeout: timeout,
		limiter: limiter,
		log:     log,
	}
}

type tickerResponse struct {
	Ticker *struct {
		MarketID  string          `json:"market_id"`
		LastPrice json.RawMessage `json:"last_price"`
	} `json:"ticker"`
}

// FetchLastPrice returns ticker.last_price for marketID as text, without reformatting it.
func (c *Client) FetchLastPrice(ctx context.Context, marketID string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	price, status, err := c.fetch(ctx, marketID)
	metrics.RecordMarketRequest(marketID, status, time.Since(start))

	if err != nil {
		c.log.Debug("ticker request failed",
			slog.String("market_id", marketID),
			slog.String("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)
		return "", err
	}

	c.log.Debug("ticker fetched",
		slog.String("market_id", marketID),
		slog.String("last_price", price),
		slog.Duration("duration", time.Since(start)),
	)

	return price, nil
}

func (c *Client) fetch(ctx context.Context, marketID string) (string, string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", metrics.MarketStatusHTTPError, &HTTPError{MarketID: marketID, Err: err}
		}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("marketId", marketID).
		Get(tickerEndpoint)
	if err != nil {
		return "", metrics.MarketStatusHTTPError, &HTTPError{MarketID: marketID, Err: err}
	}

	if !resp.IsSuccess() {
		return "", metrics.MarketStatusHTTPError, &HTTPError{
			MarketID:   marketID,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("GET %s: %s", resp.Request.URL, resp.Status()),
		}
	}

	price, err := parseLastPrice(marketID, resp.Body())
	if err != nil {
		return "", metrics.MarketStatusMalformed, err
	}

	return price, metrics.MarketStatusOK, nil
}

func parseLastPrice(marketID string, body []byte) (string, error) {
	var payload tickerResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &MalformedResponseError{MarketID: marketID, Reason: "invalid json", Err: err}
	}

	if payload.Ticker == nil {
		return "", &MalformedResponseError{MarketID: marketID, Reason: "missing ticker"}
	}

	raw := bytes.TrimSpace(payload.Ticker.LastPrice)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", &MalformedResponseError{MarketID: marketID, Reason: "missing ticker.last_price"}
	}

	price, ok := renderScalar(raw)
	if !ok {
		return "", &MalformedResponseError{MarketID: marketID, Reason: "ticker.last_price is not a scalar"}
	}

	return price, nil
}

// renderScalar turns a JSON string, number, or array of those into display text.
// Buda returns amounts as ["<value>", "<currency>"]; the pair is joined with a space.
func renderScalar(raw json.RawMessage) (string, bool) {
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
			return "", false
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) == 0 || item[0] == '[' {
				return "", false
			}
			part, ok := renderScalar(item)
			if !ok {
				return "", false
			}
			parts = append(parts, part)
		}
		return strings.Join(parts, " "), true
	case '{', 'n':
		return "", false
	case 't', 'f':
		return string(raw), true
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
}

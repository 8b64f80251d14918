package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestRecordCommand(t *testing.T) {
	before := counterValue(t, botCommandsTotal.WithLabelValues("/btc", "ok"))

	RecordCommand("/btc", "ok", 20*time.Millisecond)

	assert.Equal(t, before+1, counterValue(t, botCommandsTotal.WithLabelValues("/btc", "ok")))
}

func TestRecordCommand_EmptyLabels(t *testing.T) {
	before := counterValue(t, botCommandsTotal.WithLabelValues("unknown", "unknown"))

	RecordCommand("", "", time.Millisecond)

	assert.Equal(t, before+1, counterValue(t, botCommandsTotal.WithLabelValues("unknown", "unknown")))
}

func TestRecordMarketRequest(t *testing.T) {
	before := counterValue(t, marketRequestsTotal.WithLabelValues("btc-clp", MarketStatusHTTPError))

	RecordMarketRequest("btc-clp", MarketStatusHTTPError, time.Second)

	assert.Equal(t, before+1, counterValue(t, marketRequestsTotal.WithLabelValues("btc-clp", MarketStatusHTTPError)))
}

func TestRecordErrorAndInline(t *testing.T) {
	errBefore := counterValue(t, errorsTotal.WithLabelValues("E102", "low"))
	inlineBefore := counterValue(t, inlineQueriesTotal.WithLabelValues("answered"))

	RecordError("E102", "low")
	RecordInlineQuery("answered")

	assert.Equal(t, errBefore+1, counterValue(t, errorsTotal.WithLabelValues("E102", "low")))
	assert.Equal(t, inlineBefore+1, counterValue(t, inlineQueriesTotal.WithLabelValues("answered")))
}

func TestRecordRateLimitCheck(t *testing.T) {
	allowedBefore := counterValue(t, rateLimitChecksTotal.WithLabelValues("memory", "allowed"))
	rejectedBefore := counterValue(t, rateLimitChecksTotal.WithLabelValues("memory", "rejected"))

	RecordRateLimitCheck("memory", true)
	RecordRateLimitCheck("memory", false)
	RecordRateLimitCheck("memory", false)

	assert.Equal(t, allowedBefore+1, counterValue(t, rateLimitChecksTotal.WithLabelValues("memory", "allowed")))
	assert.Equal(t, rejectedBefore+2, counterValue(t, rateLimitChecksTotal.WithLabelValues("memory", "rejected")))
}

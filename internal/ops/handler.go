// Package ops builds the HTTP surface used by operators: metrics and health probes.
package ops

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/buda-bot/internal/health"
	"github.com/Proton-105/buda-bot/internal/middleware"
	"github.com/Proton-105/buda-bot/pkg/logger"
)

// NewHandler serves /metrics, /healthz (dependency checks) and /livez (process is up).
func NewHandler(checker *health.Checker, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /healthz", checker.Handler())
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return logger.Middleware(middleware.HTTPLogging(log)(mux))
}

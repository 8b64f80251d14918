package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Proton-105/buda-bot/internal/i18n"
	"github.com/Proton-105/buda-bot/pkg/logger"
	"github.com/Proton-105/buda-bot/pkg/metrics"
)

const fallbackUserMessage = "Something went wrong. Please try again later."

// Handler logs command failures and renders their user-facing message. Error-level records reach
// Sentry through the logger's Sentry handler when it is enabled.
type Handler struct {
	log *slog.Logger
}

func NewHandler(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// Handle logs err once and returns the user message in tr's language together with whether the
// action can be retried.
func (h *Handler) Handle(ctx context.Context, err error, tr i18n.Translator) (string, bool) {
	if err == nil {
		return "", false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log := h.log
	if log == nil {
		log = slog.Default()
	}

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr == nil {
		appErr = NewInternalError(err)
	}

	attrs := []slog.Attr{
		slog.String("code", appErr.Code),
		slog.String("message", appErr.Message),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
	}

	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	log.LogAttrs(ctx, levelFor(appErr.Severity), "command failed", attrs...)
	metrics.RecordError(appErr.Code, string(appErr.Severity))

	return render(appErr, tr), appErr.Retryable
}

func render(appErr *AppError, tr i18n.Translator) string {
	if tr == nil || appErr.MessageKey == "" {
		return fallbackUserMessage
	}

	msg := tr.Tf(appErr.MessageKey, appErr.MessageArgs...)
	if msg == "" || msg == appErr.MessageKey {
		if generic := tr.T(KeyInternal); generic != KeyInternal {
			return generic
		}
		return fallbackUserMessage
	}

	return msg
}

// Caller mistakes are expected traffic; anything involving the market API or the bot itself is an error.
func levelFor(severity Severity) slog.Level {
	if severity == SeverityLow {
		return slog.LevelInfo
	}
	return slog.LevelError
}

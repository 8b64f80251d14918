package bot

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/buda-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/buda-bot/internal/errors"
	"github.com/Proton-105/buda-bot/internal/i18n"
	"github.com/Proton-105/buda-bot/pkg/logger"
)

// RequestContextMiddleware attaches a context carrying a fresh correlation id to the update.
func RequestContextMiddleware() handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			handlers.WithRequestContext(c, logger.WithCorrelationID(handlers.RequestContext(c), ""))
			return next(c)
		}
	}
}

// ErrorHandlingMiddleware is the single place where handler failures are logged. When
// reply is set the user gets the catalog message for the failure; otherwise the failure
// stays silent. Errors never propagate to telebot.
func ErrorHandlingMiddleware(errHandler *apperrors.Handler, catalog *i18n.Manager, reply bool, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			ctx := handlers.RequestContext(c)
			tr := catalog.Translator(senderLanguage(c))

			userMsg, _ := errHandler.Handle(ctx, err, tr)
			if !reply || userMsg == "" || c.Message() == nil {
				return nil
			}

			if sendErr := c.Send(userMsg); sendErr != nil {
				log.WarnContext(ctx, "failed to deliver error message", slog.Any("error", sendErr))
			}

			return nil
		}
	}
}

// RecoveryMiddleware turns a handler panic into an internal error for ErrorHandlingMiddleware.
func RecoveryMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.WarnContext(handlers.RequestContext(c), "panic recovered in handler",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)
					err = apperrors.NewInternalError(fmt.Errorf("panic recovered: %v", r))
				}
			}()

			return next(c)
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			ctx := handlers.RequestContext(c)

			userID := int64(0)
			if sender := c.Sender(); sender != nil {
				userID = sender.ID
			}

			action := "inline_query"
			if c.Query() == nil {
				action = c.Text()
			}

			attrs := []any{
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
			}

			log.DebugContext(ctx, "handling update", attrs...)
			err := next(c)
			log.InfoContext(ctx, "handled update", append(attrs,
				slog.Duration("duration", time.Since(start)),
				slog.Bool("failed", err != nil),
			)...)

			return err
		}
	}
}

func senderLanguage(c telebot.Context) string {
	if sender := c.Sender(); sender != nil {
		return sender.LanguageCode
	}
	return ""
}

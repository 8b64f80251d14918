package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/buda-bot/internal/inline"
	"github.com/Proton-105/buda-bot/pkg/metrics"
)

// Inline answers are personal and short-lived.
const inlineCacheTime = 0

// NewInlineQueryHandler answers inline queries with Caps/Bold/Italic variants of the query text.
// Empty queries get no answer.
func NewInlineQueryHandler(provider *inline.Provider, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		query := c.Query()
		if query == nil {
			return nil
		}

		suggestions := provider.BuildSuggestions(query.Text)
		if len(suggestions) == 0 {
			metrics.RecordInlineQuery("empty")
			return nil
		}

		results := make(telebot.Results, 0, len(suggestions))
		for _, s := range suggestions {
			results = append(results, articleResult(s))
		}

		metrics.RecordInlineQuery("answered")
		log.DebugContext(RequestContext(c), "answering inline query", slog.Int("results", len(results)))

		return c.Answer(&telebot.QueryResponse{
			Results:    results,
			CacheTime:  inlineCacheTime,
			IsPersonal: true,
		})
	}
}

func articleResult(s inline.Suggestion) *telebot.ArticleResult {
	article := &telebot.ArticleResult{
		Title:       s.Title,
		Description: s.Preview,
	}
	article.SetResultID(s.ID)
	article.SetContent(&telebot.InputTextMessageContent{
		Text:      s.Text,
		ParseMode: telebot.ParseMode(s.ParseMode),
	})
	return article
}

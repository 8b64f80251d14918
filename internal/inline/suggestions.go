// Package inline builds the text-transform suggestions offered for inline queries.
package inline

import (
	"strings"

	"github.com/google/uuid"
)

// ParseModeMarkdown is Telegram's legacy Markdown dialect.
const ParseModeMarkdown = "Markdown"

// Suggestion is one selectable inline result.
type Suggestion struct {
	ID        string
	Title     string
	Text      string
	ParseMode string // empty for plain text
	// Preview is the unformatted text shown on the result card.
	Preview string
}

// Provider produces suggestions. The zero value is not usable; call NewProvider.
type Provider struct {
	newID func() string
}

// Option customises a Provider.
type Option func(*Provider)

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(fn func() string) Option {
	return func(p *Provider) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// NewProvider returns a Provider that stamps suggestions with random UUIDs.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{newID: uuid.NewString}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildSuggestions returns nothing for an empty query, otherwise Caps, Bold and Italic, in that order.
func (p *Provider) BuildSuggestions(query string) []Suggestion {
	if query == "" {
		return nil
	}

	escaped := EscapeMarkdown(query)
	caps := strings.ToUpper(query)

	return []Suggestion{
		{ID: p.newID(), Title: "Caps", Text: caps, Preview: caps},
		{ID: p.newID(), Title: "Bold", Text: "*" + escaped + "*", ParseMode: ParseModeMarkdown, Preview: query},
		{ID: p.newID(), Title: "Italic", Text: "_" + escaped + "_", ParseMode: ParseModeMarkdown, Preview: query},
	}
}

var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// EscapeMarkdown backslash-escapes the characters significant in legacy Markdown.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

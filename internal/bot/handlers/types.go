package handlers

import (
	"context"
	"strings"

	telebot "gopkg.in/telebot.v3"
)

// Handler processes one update.
type Handler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// PriceFetcher returns the last traded price of a market, ready to be sent as a reply.
type PriceFetcher interface {
	FetchLastPrice(ctx context.Context, marketID string) (string, error)
}

const requestContextKey = "request_context"

// WithRequestContext stores ctx on the update so handlers and middlewares share it.
func WithRequestContext(c telebot.Context, ctx context.Context) {
	c.Set(requestContextKey, ctx)
}

// RequestContext returns the context stored by WithRequestContext, or context.Background.
func RequestContext(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(requestContextKey).(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// Command is a parsed "/name@bot arg1 arg2" message.
type Command struct {
	Name    string // without the leading slash, e.g. "price"
	Mention string // bot username after "@", empty when absent
	Args    []string
}

// ParseCommand splits a command message. It reports false for text that is not a command.
// Arguments are separated by any run of whitespace.
func ParseCommand(text string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}

	name, mention, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	if name == "" {
		return Command{}, false
	}

	return Command{Name: name, Mention: mention, Args: fields[1:]}, true
}

// Arg returns the i-th argument and whether it was supplied.
func (c Command) Arg(i int) (string, bool) {
	if i < 0 || i >= len(c.Args) {
		return "", false
	}
	return c.Args[i], true
}

func senderLanguage(c telebot.Context) string {
	if sender := c.Sender(); sender != nil {
		return sender.LanguageCode
	}
	return ""
}

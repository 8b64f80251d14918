// Package testutil holds test doubles shared by the bot packages.
package testutil

import (
	"errors"
	"sync"

	telebot "gopkg.in/telebot.v3"
)

// ErrNotImplemented is returned by FakeContext methods a test did not configure.
var ErrNotImplemented = errors.New("testutil: not implemented")

// FakeContext is an in-memory telebot.Context. Methods that are not overridden
// panic through the nil embedded interface, which flags unexpected calls.
type FakeContext struct {
	telebot.Context

	mu      sync.Mutex
	message *telebot.Message
	query   *telebot.Query
	sender  *telebot.User
	store   map[string]any

	// SendErr is returned from Send and Answer when set.
	SendErr error

	sent    []any
	answers []*telebot.QueryResponse
}

// NewMessageContext builds a context for a private text message from userID.
func NewMessageContext(userID int64, lang, text string) *FakeContext {
	sender := &telebot.User{ID: userID, LanguageCode: lang}
	return &FakeContext{
		sender: sender,
		message: &telebot.Message{
			Sender: sender,
			Chat:   &telebot.Chat{ID: userID, Type: telebot.ChatPrivate},
			Text:   text,
		},
		store: make(map[string]any),
	}
}

// NewQueryContext builds a context for an inline query from userID.
func NewQueryContext(userID int64, lang, text string) *FakeContext {
	sender := &telebot.User{ID: userID, LanguageCode: lang}
	return &FakeContext{
		sender: sender,
		query:  &telebot.Query{ID: "q-1", Sender: sender, Text: text},
		store:  make(map[string]any),
	}
}

func (f *FakeContext) Message() *telebot.Message { return f.message }

func (f *FakeContext) Query() *telebot.Query { return f.query }

func (f *FakeContext) Callback() *telebot.Callback { return nil }

func (f *FakeContext) Sender() *telebot.User { return f.sender }

func (f *FakeContext) Text() string {
	switch {
	case f.message != nil:
		return f.message.Text
	case f.query != nil:
		return f.query.Text
	default:
		return ""
	}
}

func (f *FakeContext) Send(what interface{}, _ ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.message == nil {
		return ErrNotImplemented
	}
	if f.SendErr != nil {
		return f.SendErr
	}

	f.sent = append(f.sent, what)
	return nil
}

func (f *FakeContext) Answer(resp *telebot.QueryResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.query == nil {
		return ErrNotImplemented
	}
	if f.SendErr != nil {
		return f.SendErr
	}

	f.answers = append(f.answers, resp)
	return nil
}

func (f *FakeContext) Get(key string) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[key]
}

func (f *FakeContext) Set(key string, val interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = val
}

// Sent returns everything passed to Send, in order.
func (f *FakeContext) Sent() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.sent...)
}

// SentTexts returns the string replies passed to Send.
func (f *FakeContext) SentTexts() []string {
	var texts []string
	for _, v := range f.Sent() {
		if s, ok := v.(string); ok {
			texts = append(texts, s)
		}
	}
	return texts
}

// Answers returns every inline query answer.
func (f *FakeContext) Answers() []*telebot.QueryResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*telebot.QueryResponse(nil), f.answers...)
}

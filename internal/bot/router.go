package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/buda-bot/internal/bot/handlers"
)

// Router dispatches commands and inline queries through a shared middleware chain.
type Router struct {
	mu             sync.RWMutex
	username       string
	commands       map[string]handlers.Handler
	queryHandler   handlers.Handler
	defaultHandler handlers.Handler
	middlewares    []handlers.Middleware
	log            *slog.Logger
}

// NewRouter builds a Router for the bot with the given username. Commands addressed
// to another bot ("/start@other_bot") are ignored.
func NewRouter(username string, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		username:    username,
		commands:    make(map[string]handlers.Handler),
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command such as "/price".
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd] = h
}

// RegisterQuery registers the inline query handler.
func (r *Router) RegisterQuery(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queryHandler = h
}

// Use appends a middleware to the chain. The first registered middleware runs outermost.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// SetDefault sets the handler for unknown commands.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	if c.Query() != nil {
		return r.executeHandler(r.getQueryHandler(), c)
	}

	return r.handleMessage(c)
}

func (r *Router) handleMessage(c telebot.Context) error {
	cmd, ok := handlers.ParseCommand(c.Text())
	if !ok {
		return nil
	}

	if cmd.Mention != "" && !strings.EqualFold(cmd.Mention, r.username) {
		r.log.Debug("command addressed to another bot", slog.String("command", cmd.Name), slog.String("mention", cmd.Mention))
		return nil
	}

	if handler := r.getCommandHandler("/" + cmd.Name); handler != nil {
		return r.executeHandler(handler, c)
	}

	if handler := r.getDefaultHandler(); handler != nil {
		return r.executeHandler(handler, c)
	}

	r.log.Debug("no command handler found", slog.String("command", cmd.Name))
	return nil
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	wrapped := r.applyMiddlewares(h)
	if wrapped == nil {
		return nil
	}
	return wrapped(c)
}

func (r *Router) getCommandHandler(cmd string) handlers.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[cmd]
}

func (r *Router) getQueryHandler() handlers.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.queryHandler
}

func (r *Router) getDefaultHandler() handlers.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultHandler
}

// applyMiddlewares wraps the handler with all registered middlewares.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	if h == nil {
		return nil
	}

	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}

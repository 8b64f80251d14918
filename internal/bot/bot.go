package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/buda-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/buda-bot/internal/errors"
	"github.com/Proton-105/buda-bot/internal/i18n"
	"github.com/Proton-105/buda-bot/internal/inline"
	"github.com/Proton-105/buda-bot/internal/middleware"
	"github.com/Proton-105/buda-bot/pkg/config"
)

// Dependencies are the collaborators the bot dispatches to. RateLimit is optional.
type Dependencies struct {
	Prices    handlers.PriceFetcher
	Catalog   *i18n.Manager
	Inline    *inline.Provider
	RateLimit *middleware.RateLimitMiddleware
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	deps       Dependencies
	router     *Router
	errHandler *apperrors.Handler
}

// New builds a telegram bot instance configured according to the application settings.
func New(cfg config.Config, deps Dependencies, log *slog.Logger) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}
	if deps.Prices == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("bot: price fetcher and catalog are required")
	}
	if deps.Inline == nil {
		deps.Inline = inline.NewProvider()
	}

	tb, err := telebot.NewBot(settings(cfg, log))
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		deps:       deps,
		router:     NewRouter(tb.Me.Username, log),
		errHandler: apperrors.NewHandler(log),
	}

	b.setupRouter()
	b.registerTelebotHandlers()

	return b, nil
}

func settings(cfg config.Config, log *slog.Logger) telebot.Settings {
	s := telebot.Settings{
		Token:   cfg.Bot.Token,
		Offline: cfg.Bot.Offline,
		OnError: func(err error, c telebot.Context) {
			log.Error("telegram update failed", slog.Any("error", err))
		},
	}

	if cfg.Bot.Mode == config.BotModeWebhook {
		s.Poller = &telebot.Webhook{
			Listen:   cfg.Bot.WebhookListen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
	} else {
		s.Poller = &telebot.LongPoller{Timeout: cfg.Bot.Timeout}
	}

	return s
}

// Start publishes the command menu and runs the update loop. It blocks until Stop.
func (b *Bot) Start() {
	if b.telebot == nil {
		return
	}

	if !b.cfg.Bot.Offline {
		if err := b.publishCommands(); err != nil {
			b.log.Warn("failed to publish bot commands", slog.Any("error", err))
		}
	}

	b.log.Info("telegram bot started", slog.String("mode", b.cfg.Bot.Mode), slog.String("username", b.telebot.Me.Username))
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// Router exposes the update router, mainly for tests.
func (b *Bot) Router() *Router {
	return b.router
}

func (b *Bot) setupRouter() {
	b.router.Use(RequestContextMiddleware())
	b.router.Use(ErrorHandlingMiddleware(b.errHandler, b.deps.Catalog, b.cfg.Bot.ReplyOnError, b.log))
	b.router.Use(RecoveryMiddleware(b.log))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Metrics)
	if b.deps.RateLimit != nil {
		b.router.Use(b.deps.RateLimit.Handle)
	}

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(b.deps.Catalog))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(b.deps.Catalog, b.telebot.Me.Username))

	for _, fixed := range FixedPriceCommands {
		b.router.RegisterCommand(fixed.Command, handlers.NewFixedPriceHandler(fixed.Symbol, b.deps.Prices, b.log))
	}

	price := handlers.NewPriceHandler(b.deps.Prices, b.log)
	b.router.RegisterCommand(CommandPrice, price)
	b.router.RegisterCommand(CommandBudda, price)

	b.router.RegisterQuery(handlers.NewInlineQueryHandler(b.deps.Inline, b.log))
}

func (b *Bot) registerTelebotHandlers() {
	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnQuery, b.router.Route)
}

// publishCommands registers the command menu once per catalog language, plus a default.
func (b *Bot) publishCommands() error {
	if err := b.telebot.SetCommands(menu(b.deps.Catalog.Translator(b.cfg.Bot.DefaultLanguage))); err != nil {
		return err
	}

	for _, lang := range b.deps.Catalog.Languages() {
		if err := b.telebot.SetCommands(menu(b.deps.Catalog.Translator(lang)), lang); err != nil {
			return fmt.Errorf("set commands for %s: %w", lang, err)
		}
	}

	return nil
}

func menu(tr i18n.Translator) []telebot.Command {
	cmds := make([]telebot.Command, 0, len(menuCommands))
	for _, cmd := range menuCommands {
		name := cmd[1:]
		cmds = append(cmds, telebot.Command{Text: name, Description: tr.T("commands." + name)})
	}
	return cmds
}

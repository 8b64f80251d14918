package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/buda-bot/internal/i18n"
	"github.com/Proton-105/buda-bot/internal/market"
)

// NewStartHandler greets the user.
func NewStartHandler(catalog *i18n.Manager) Handler {
	return func(c telebot.Context) error {
		tr := catalog.Translator(senderLanguage(c))
		return c.Send(tr.T("start.greeting"))
	}
}

// NewHelpHandler lists the available commands and supported symbols. botUsername fills in
// the inline-mode hint; an empty name gets a generic wording.
func NewHelpHandler(catalog *i18n.Manager, botUsername string) Handler {
	return func(c telebot.Context) error {
		tr := catalog.Translator(senderLanguage(c))

		hint := tr.T("help.inline_unnamed")
		if botUsername != "" {
			hint = tr.Tf("help.inline", botUsername)
		}

		return c.Send(tr.Tf("help.text", market.SupportedSymbolsList()) + "\n" + hint)
	}
}

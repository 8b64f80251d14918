package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/Proton-105/buda-bot/internal/errors"
	"github.com/Proton-105/buda-bot/internal/market"
)

// NewFixedPriceHandler replies with the last price of symbol's market. The market id is built
// directly, so symbol does not have to be in the resolver's supported set.
func NewFixedPriceHandler(symbol string, fetcher PriceFetcher, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	marketID := market.MarketID(symbol)

	return func(c telebot.Context) error {
		return replyWithPrice(c, fetcher, marketID, log)
	}
}

// NewPriceHandler replies with the last price of the market named by the first argument.
func NewPriceHandler(fetcher PriceFetcher, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		cmd, _ := ParseCommand(c.Text())

		symbol, ok := cmd.Arg(0)
		if !ok {
			return apperrors.NewMissingArgumentError(cmd.Name, "symbol", market.SupportedSymbolsList())
		}

		marketID, err := market.ResolveMarketID(symbol)
		if err != nil {
			return apperrors.FromMarket(err)
		}

		return replyWithPrice(c, fetcher, marketID, log)
	}
}

func replyWithPrice(c telebot.Context, fetcher PriceFetcher, marketID string, log *slog.Logger) error {
	ctx := RequestContext(c)

	price, err := fetcher.FetchLastPrice(ctx, marketID)
	if err != nil {
		return apperrors.FromMarket(err)
	}

	log.DebugContext(ctx, "price fetched", slog.String("market_id", marketID), slog.String("price", price))

	return c.Send(price)
}

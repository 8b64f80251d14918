package market

import "strings"

// DefaultQuoteCurrency is the currency every supported market is quoted in.
const DefaultQuoteCurrency = "clp"

var supportedSymbols = []string{"btc", "eth", "ltc", "bch"}

// SupportedSymbols returns the symbols accepted by ResolveMarketID, in display order.
func SupportedSymbols() []string {
	out := make([]string, len(supportedSymbols))
	copy(out, supportedSymbols)
	return out
}

// IsSupported reports whether symbol is in the supported set. Matching is case-sensitive.
func IsSupported(symbol string) bool {
	for _, s := range supportedSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// MarketID builds "<symbol>-clp" without checking the symbol.
func MarketID(symbol string) string {
	return symbol + "-" + DefaultQuoteCurrency
}

// ResolveMarketID maps a user supplied symbol to its market identifier.
func ResolveMarketID(symbol string) (string, error) {
	if !IsSupported(symbol) {
		return "", &UnsupportedSymbolError{Symbol: symbol}
	}
	return MarketID(symbol), nil
}

// SupportedSymbolsList renders the supported set for user-facing messages.
func SupportedSymbolsList() string {
	return strings.Join(supportedSymbols, ", ")
}

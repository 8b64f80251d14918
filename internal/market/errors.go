package market

import "fmt"

// HTTPError reports a transport failure or a non-2xx status from the ticker endpoint.
type HTTPError struct {
	MarketID   string
	StatusCode int // zero when the request never got a response
	Err        error
}

func (e *HTTPError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("market %s: unexpected status %d", e.MarketID, e.StatusCode)
	}
	return fmt.Sprintf("market %s: request failed: %v", e.MarketID, e.Err)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a body that is not JSON or lacks ticker.last_price.
type MalformedResponseError struct {
	MarketID string
	Reason   string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("market %s: malformed ticker response: %s: %v", e.MarketID, e.Reason, e.Err)
	}
	return fmt.Sprintf("market %s: malformed ticker response: %s", e.MarketID, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// UnsupportedSymbolError is returned by ResolveMarketID for symbols outside the supported set.
type UnsupportedSymbolError struct {
	Symbol string
}

func (e *UnsupportedSymbolError) Error() string {
	return fmt.Sprintf("unsupported symbol %q", e.Symbol)
}

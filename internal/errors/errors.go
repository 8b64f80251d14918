package errors

import (
	"errors"
	"fmt"

	"github.com/Proton-105/buda-bot/internal/market"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error codes, grouped by family: E1xx caller input, E3xx market API, E5xx throttling, E9xx internal.
const (
	CodeMissingArgument   = "E101"
	CodeUnsupportedSymbol = "E102"
	CodeMarketHTTP        = "E301"
	CodeMarketMalformed   = "E302"
	CodeRateLimited       = "E500"
	CodeInternal          = "E900"
)

// Catalog keys of the user-facing messages.
const (
	KeyMissingArgument   = "errors.missing_argument"
	KeyUnsupportedSymbol = "errors.unsupported_symbol"
	KeyMarketUnavailable = "errors.market_unavailable"
	KeyMalformedResponse = "errors.malformed_response"
	KeyRateLimited       = "errors.rate_limited"
	KeyInternal          = "errors.internal"
)

type AppError struct {
	Code        string
	Message     string
	MessageKey  string
	MessageArgs []any
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// MissingArgumentError reports a parameterised command invoked without its argument.
type MissingArgumentError struct {
	Command  string
	Argument string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("command /%s requires argument <%s>", e.Command, e.Argument)
}

func NewMissingArgumentError(command, argument, supported string) *AppError {
	cause := &MissingArgumentError{Command: command, Argument: argument}
	return &AppError{
		Code:        CodeMissingArgument,
		Message:     cause.Error(),
		MessageKey:  KeyMissingArgument,
		MessageArgs: []any{command, supported},
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

func NewUnsupportedSymbolError(cause *market.UnsupportedSymbolError, supported string) *AppError {
	return &AppError{
		Code:        CodeUnsupportedSymbol,
		Message:     cause.Error(),
		MessageKey:  KeyUnsupportedSymbol,
		MessageArgs: []any{cause.Symbol, supported},
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

func NewMarketHTTPError(cause *market.HTTPError) *AppError {
	return &AppError{
		Code:       CodeMarketHTTP,
		Message:    fmt.Sprintf("External API error: %s", cause.Error()),
		MessageKey: KeyMarketUnavailable,
		Severity:   SeverityMedium,
		Retryable:  true,
		cause:      cause,
	}
}

func NewMalformedResponseError(cause *market.MalformedResponseError) *AppError {
	return &AppError{
		Code:       CodeMarketMalformed,
		Message:    fmt.Sprintf("External API contract error: %s", cause.Error()),
		MessageKey: KeyMalformedResponse,
		Severity:   SeverityHigh,
		Retryable:  false,
		cause:      cause,
	}
}

func NewRateLimitError(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfterSeconds),
		MessageKey: KeyRateLimited,
		Severity:   SeverityLow,
		Retryable:  false,
	}
}

func NewInternalError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:       CodeInternal,
		Message:    fmt.Sprintf("Internal error: %s", underlyingMsg),
		MessageKey: KeyInternal,
		Severity:   SeverityHigh,
		Retryable:  false,
		cause:      cause,
	}
}

// FromMarket classifies an error returned by the market client.
func FromMarket(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var httpErr *market.HTTPError
	if errors.As(err, &httpErr) {
		return NewMarketHTTPError(httpErr)
	}

	var malformed *market.MalformedResponseError
	if errors.As(err, &malformed) {
		return NewMalformedResponseError(malformed)
	}

	var unsupported *market.UnsupportedSymbolError
	if errors.As(err, &unsupported) {
		return NewUnsupportedSymbolError(unsupported, market.SupportedSymbolsList())
	}

	return NewInternalError(err)
}

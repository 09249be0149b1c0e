package domain

import (
	"github.com/pkg/errors"
)

// Failure kinds. Callers match them with errors.Is.
var (
	ErrInvalidPrice              = errors.New("invalid price")
	ErrInvalidAmount             = errors.New("invalid amount")
	ErrInsufficientAsset         = errors.New("insufficient asset balance")
	ErrInsufficientQuote         = errors.New("insufficient quote balance")
	ErrUpstreamFetchFailed       = errors.New("upstream fetch failed")
	ErrUpstreamMalformedResponse = errors.New("upstream malformed response")
)

// TradeError is a rejected trade command together with the reason shown to the user.
type TradeError struct {
	Kind   error
	Reason string
}

func (e *TradeError) Error() string {
	return e.Kind.Error() + ": " + e.Reason
}

// Unwrap exposes the failure kind to errors.Is.
func (e *TradeError) Unwrap() error {
	return e.Kind
}

// NewTradeError builds a TradeError of the given kind.
func NewTradeError(kind error, reason string) *TradeError {
	return &TradeError{Kind: kind, Reason: reason}
}

// ReasonOf returns a display string for err. Non-trade errors get a generic message.
func ReasonOf(err error) string {
	if err == nil {
		return ""
	}
	var te *TradeError
	if errors.As(err, &te) {
		return te.Reason
	}
	switch {
	case errors.Is(err, ErrInvalidPrice):
		return "No price available yet."
	case errors.Is(err, ErrInvalidAmount):
		return "Please enter a valid amount."
	case errors.Is(err, ErrInsufficientAsset):
		return "Insufficient asset balance."
	case errors.Is(err, ErrInsufficientQuote):
		return "Insufficient quote balance."
	}
	return "Trade could not be executed."
}

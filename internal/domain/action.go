package domain

import (
	"strings"

	"github.com/pkg/errors"
)

// Action is the direction of a trade.
type Action int

const (
	ActionBuy Action = iota
	ActionSell
)

const (
	actionStringBuy  = "buy"
	actionStringSell = "sell"
)

// ParseAction converts "buy" or "sell" into an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case actionStringBuy:
		return ActionBuy, nil
	case actionStringSell:
		return ActionSell, nil
	}
	return 0, errors.Errorf("unknown action %q", s)
}

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionBuy:
		return actionStringBuy
	case ActionSell:
		return actionStringSell
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if a != ActionBuy && a != ActionSell {
		return nil, errors.Errorf("unknown action %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

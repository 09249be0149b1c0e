// Package domain defines core data structures used throughout the dashboard.
package domain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Pair is the single instrument the dashboard tracks.
type Pair struct {
	// From asset symbol, e.g. BTC.
	From string
	// To quote currency symbol, e.g. EUR.
	To string
}

// ParsePair parses a pair in the BASE_QUOTE form.
func ParsePair(s string) (Pair, error) {
	elements := strings.Split(strings.TrimSpace(s), "_")
	if len(elements) != 2 || elements[0] == "" || elements[1] == "" {
		return Pair{}, errors.Errorf("invalid pair %q, expected BASE_QUOTE", s)
	}
	return Pair{From: strings.ToUpper(elements[0]), To: strings.ToUpper(elements[1])}, nil
}

// String returns the string representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

// Symbol returns the concatenated symbol representation.
func (p Pair) Symbol() string {
	return fmt.Sprintf("%s%s", p.From, p.To)
}

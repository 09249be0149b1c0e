package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Trade is an executed simulated trade. Amounts are positive magnitudes,
// the direction lives in Action.
type Trade struct {
	ID          string          `json:"id"`
	Action      Action          `json:"type"`
	AmountAsset decimal.Decimal `json:"amount_asset"`
	AmountQuote decimal.Decimal `json:"amount_quote"`
	Price       decimal.Decimal `json:"price"`
	Timestamp   time.Time       `json:"timestamp"`
}

// NewTrade validates all fields and builds a Trade.
func NewTrade(id string, action Action, amountAsset, amountQuote, price decimal.Decimal, ts time.Time) (Trade, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Trade{}, errors.Wrapf(err, "invalid trade id %q", id)
	}
	if action != ActionBuy && action != ActionSell {
		return Trade{}, errors.Errorf("invalid trade action %d", int(action))
	}
	if !price.IsPositive() {
		return Trade{}, errors.Wrapf(ErrInvalidPrice, "price %s", price)
	}
	if !amountAsset.IsPositive() || !amountQuote.IsPositive() {
		return Trade{}, errors.Wrapf(ErrInvalidAmount, "asset %s quote %s", amountAsset, amountQuote)
	}
	if ts.IsZero() {
		return Trade{}, errors.New("trade timestamp is required")
	}

	return Trade{
		ID:          id,
		Action:      action,
		AmountAsset: amountAsset,
		AmountQuote: amountQuote,
		Price:       price,
		Timestamp:   ts,
	}, nil
}

// String returns a human-readable string representation.
func (t Trade) String() string {
	return fmt.Sprintf("%s %s asset: %s quote: %s price: %s", t.ID, t.Action, t.AmountAsset, t.AmountQuote, t.Price)
}

// TradeRow is a trade as shown in the history list, with signed amounts.
type TradeRow struct {
	ID        string    `json:"id"`
	Action    Action    `json:"type"`
	Asset     string    `json:"asset"`
	Quote     string    `json:"quote"`
	Price     string    `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Row renders t for display. Buys gain asset and spend quote, sells do the reverse.
func (t Trade) Row(pair Pair) TradeRow {
	assetSign, quoteSign := "+", "-"
	if t.Action == ActionSell {
		assetSign, quoteSign = "-", "+"
	}
	return TradeRow{
		ID:        t.ID,
		Action:    t.Action,
		Asset:     assetSign + FormatAsset(t.AmountAsset, pair.From),
		Quote:     quoteSign + FormatQuote(t.AmountQuote, pair.To),
		Price:     FormatQuote(t.Price, pair.To),
		Timestamp: t.Timestamp,
	}
}

package domain

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	// AssetPlaces is the display and quote precision of the traded asset.
	AssetPlaces = 8
	// QuotePlaces is the display and quote precision of the quote currency.
	QuotePlaces = 2
)

// FormatQuote renders an amount of the quote currency, e.g. €1,234.56.
// Currencies unknown to go-money fall back to "1234.56 CODE".
func FormatQuote(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(QuotePlaces) + " " + code
	}

	factor := decimal.New(1, int32(cur.Fraction))
	minor := amount.Mul(factor).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// FormatAsset renders an asset amount with fixed precision, e.g. 0.10000000 BTC.
func FormatAsset(amount decimal.Decimal, symbol string) string {
	return amount.StringFixed(AssetPlaces) + " " + symbol
}

// FormatPercent renders a percentage with two decimals.
func FormatPercent(p decimal.Decimal) string {
	return p.StringFixed(2) + "%"
}

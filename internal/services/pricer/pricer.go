// Package pricer produces price series for the dashboard, either from an
// upstream market-data source or synthesized locally.
package pricer

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
)

// HistorySource fetches a recent price history for a pair.
type HistorySource interface {
	// Name identifies the source in logs and in PriceSeries.Source.
	Name() string
	// NativeCurrency is the currency the source quotes prices in.
	NativeCurrency() string
	History(ctx context.Context, pair domain.Pair) ([]domain.PricePoint, error)
}

// RateSource converts between currencies.
type RateSource interface {
	Rate(ctx context.Context, base, quote string) (decimal.Decimal, error)
}

// fiatOf maps dollar stablecoins to USD so they share one rate.
func fiatOf(code string) string {
	switch strings.ToUpper(code) {
	case "USDT", "USDC", "FDUSD", "BUSD":
		return "USD"
	}
	return strings.ToUpper(code)
}

// Normalize converts points into the quote currency with rate and rounds
// prices to two places. Upstream order is preserved.
func Normalize(points []domain.PricePoint, rate decimal.Decimal) []domain.PricePoint {
	out := make([]domain.PricePoint, len(points))
	for i, p := range points {
		out[i] = domain.PricePoint{
			Time:  p.Time.Truncate(time.Millisecond),
			Price: p.Price.Mul(rate).Round(domain.QuotePlaces),
		}
	}
	return out
}

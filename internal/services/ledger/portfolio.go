package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ProfitPercent is a display figure.
const percentPlaces = 2

// PortfolioStats derives average-cost-basis stats at currentPrice.
// ok is false when there are no trades or the price is unknown.
func (l *Ledger) PortfolioStats(currentPrice decimal.Decimal, havePrice bool) (domain.PortfolioStats, bool) {
	l.mu.RLock()
	trades := append([]domain.Trade(nil), l.trades...)
	wallet := l.wallet
	l.mu.RUnlock()

	if !havePrice || !currentPrice.IsPositive() || len(trades) == 0 {
		return domain.PortfolioStats{}, false
	}

	return CostBasis(trades, wallet.Asset, currentPrice), true
}

// CostBasis walks trades in order. Buys add to the tracked cost and
// quantity. Sells remove the sold fraction of the tracked quantity.
// A sell larger than the tracked quantity caps the ratio at 1, keeps the
// tracked quantity at zero and sets CostBasisClamped.
func CostBasis(trades []domain.Trade, assetBalance, currentPrice decimal.Decimal) domain.PortfolioStats {
	var (
		invested = decimal.Zero
		acquired = decimal.Zero
		clamped  bool
	)

	for _, t := range trades {
		switch t.Action {
		case domain.ActionBuy:
			invested = invested.Add(t.AmountQuote)
			acquired = acquired.Add(t.AmountAsset)
		case domain.ActionSell:
			ratio := decimal.Zero
			if acquired.IsPositive() {
				ratio = t.AmountAsset.Div(acquired)
			}
			if t.AmountAsset.GreaterThan(acquired) {
				clamped = true
				if acquired.IsPositive() {
					ratio = decimal.NewFromInt(1)
				}
			}
			invested = invested.Sub(invested.Mul(ratio))
			acquired = acquired.Sub(t.AmountAsset)
			if acquired.IsNegative() {
				acquired = decimal.Zero
			}
		}
	}

	stats := domain.PortfolioStats{
		TotalInvested:      invested,
		TotalAssetAcquired: acquired,
		AverageBuyPrice:    decimal.Zero,
		CurrentValue:       assetBalance.Mul(currentPrice),
		ProfitPercent:      decimal.Zero,
		CostBasisClamped:   clamped,
	}
	if acquired.IsPositive() {
		stats.AverageBuyPrice = invested.Div(acquired)
	}
	stats.UnrealizedProfit = stats.CurrentValue.Sub(invested)
	if invested.IsPositive() {
		stats.ProfitPercent = stats.UnrealizedProfit.Div(invested).Mul(hundred).Round(percentPlaces)
	}
	stats.IsProfit = !stats.UnrealizedProfit.IsNegative()

	return stats
}

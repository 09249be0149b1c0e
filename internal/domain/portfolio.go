package domain

import "github.com/shopspring/decimal"

// PortfolioStats is the average-cost-basis view over the trade ledger.
// It is derived on demand and never stored.
type PortfolioStats struct {
	TotalInvested      decimal.Decimal `json:"total_invested"`
	TotalAssetAcquired decimal.Decimal `json:"total_asset_acquired"`
	AverageBuyPrice    decimal.Decimal `json:"average_buy_price"`
	CurrentValue       decimal.Decimal `json:"current_value"`
	UnrealizedProfit   decimal.Decimal `json:"unrealized_profit"`
	ProfitPercent      decimal.Decimal `json:"profit_percent"`
	IsProfit           bool            `json:"is_profit"`
	// CostBasisClamped is set when a sell exceeded the tracked acquired
	// quantity and the sold ratio had to be capped.
	CostBasisClamped bool `json:"cost_basis_clamped"`
}

// Quote is the result of converting a trade-form input into both amounts.
type Quote struct {
	AssetAmount decimal.Decimal `json:"asset_amount"`
	QuoteAmount decimal.Decimal `json:"quote_amount"`
}

// Unit selects which side of a Quote the user typed.
type Unit int

const (
	UnitAsset Unit = iota
	UnitQuote
)

// ParseUnit accepts "asset" or "quote".
func ParseUnit(s string) (Unit, bool) {
	switch s {
	case "asset":
		return UnitAsset, true
	case "quote":
		return UnitQuote, true
	}
	return 0, false
}

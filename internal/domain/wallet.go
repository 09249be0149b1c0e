package domain

import "github.com/shopspring/decimal"

// WalletState is the simulated balance of the asset and the quote currency.
type WalletState struct {
	Asset decimal.Decimal `json:"asset"`
	Quote decimal.Decimal `json:"quote"`
}

// Apply returns the wallet after t. It does not validate balances.
func (w WalletState) Apply(t Trade) WalletState {
	switch t.Action {
	case ActionBuy:
		return WalletState{Asset: w.Asset.Add(t.AmountAsset), Quote: w.Quote.Sub(t.AmountQuote)}
	case ActionSell:
		return WalletState{Asset: w.Asset.Sub(t.AmountAsset), Quote: w.Quote.Add(t.AmountQuote)}
	}
	return w
}

// Equal compares both balances numerically.
func (w WalletState) Equal(other WalletState) bool {
	return w.Asset.Equal(other.Asset) && w.Quote.Equal(other.Quote)
}

// Value is the quote-denominated worth of the wallet at price.
func (w WalletState) Value(price decimal.Decimal) decimal.Decimal {
	return w.Quote.Add(w.Asset.Mul(price))
}

package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/internal/events"
	"github.com/vadiminshakov/paperdash/internal/services/chart"
)

var btcUsd = domain.Pair{From: "BTC", To: "USD"}

func TestMarkdown_Empty(t *testing.T) {
	md := Markdown(events.Snapshot{Wallet: domain.WalletState{Quote: decimal.NewFromInt(10000)}}, btcUsd)

	assert.Contains(t, md, "# BTC_USD portfolio")
	assert.Contains(t, md, "No price data yet.")
	assert.Contains(t, md, "$10,000.00")
	assert.Contains(t, md, "No trades yet.")
	assert.NotContains(t, md, "## Performance")
}

func TestMarkdown_WithTrades(t *testing.T) {
	price := decimal.NewFromInt(40000)
	trade, err := domain.NewTrade("5f0c6c1e-8f43-4b5e-9a3e-2f3f1d1d9b10", domain.ActionBuy,
		decimal.RequireFromString("0.1"), decimal.NewFromInt(3000), decimal.NewFromInt(30000),
		time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	snap := events.Snapshot{
		Price:       &price,
		PriceText:   "$40,000.00",
		Provenance:  domain.ProvenanceLive,
		Source:      "coincap",
		Change:      &chart.Change{Percent: decimal.RequireFromString("-2.5"), IsPositive: false},
		Wallet:      domain.WalletState{Asset: decimal.RequireFromString("0.1"), Quote: decimal.NewFromInt(7000)},
		WalletValue: "$11,000.00",
		Stats: &domain.PortfolioStats{
			TotalInvested:    decimal.NewFromInt(3000),
			AverageBuyPrice:  decimal.NewFromInt(30000),
			CurrentValue:     decimal.NewFromInt(4000),
			UnrealizedProfit: decimal.NewFromInt(1000),
			ProfitPercent:    decimal.RequireFromString("33.33"),
			IsProfit:         true,
		},
		Trades: []domain.TradeRow{trade.Row(btcUsd)},
	}

	md := Markdown(snap, btcUsd)
	assert.Contains(t, md, "Price **$40,000.00** (live, coincap), -2.50% over the window")
	assert.Contains(t, md, "Unrealized P&L: +$1,000.00 (33.33%)")
	assert.Contains(t, md, "| 2024-03-01 12:00:00 | buy | +0.10000000 BTC | -$3,000.00 | $30,000.00 |")

	out, err := Render(md, "notty", 160)
	require.NoError(t, err)
	assert.Contains(t, out, "BTC_USD portfolio")
	assert.Contains(t, out, "+0.10000000 BTC")
}

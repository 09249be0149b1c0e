package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrade(t *testing.T) {
	id := uuid.NewString()
	now := time.Now()
	one := decimal.NewFromInt(1)

	tests := []struct {
		name    string
		id      string
		action  Action
		asset   decimal.Decimal
		quote   decimal.Decimal
		price   decimal.Decimal
		ts      time.Time
		wantErr error
	}{
		{name: "valid buy", id: id, action: ActionBuy, asset: one, quote: one, price: one, ts: now},
		{name: "valid sell", id: id, action: ActionSell, asset: one, quote: one, price: one, ts: now},
		{name: "zero price", id: id, action: ActionBuy, asset: one, quote: one, price: decimal.Zero, ts: now, wantErr: ErrInvalidPrice},
		{name: "negative asset", id: id, action: ActionBuy, asset: one.Neg(), quote: one, price: one, ts: now, wantErr: ErrInvalidAmount},
		{name: "zero quote", id: id, action: ActionSell, asset: one, quote: decimal.Zero, price: one, ts: now, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade, err := NewTrade(tt.id, tt.action, tt.asset, tt.quote, tt.price, tt.ts)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.action, trade.Action)
			assert.Equal(t, tt.id, trade.ID)
		})
	}

	t.Run("bad id", func(t *testing.T) {
		_, err := NewTrade("not-a-uuid", ActionBuy, one, one, one, now)
		require.Error(t, err)
	})

	t.Run("missing timestamp", func(t *testing.T) {
		_, err := NewTrade(id, ActionBuy, one, one, one, time.Time{})
		require.Error(t, err)
	})
}

func TestTrade_Row(t *testing.T) {
	pair := Pair{From: "BTC", To: "USD"}
	buy, err := NewTrade(uuid.NewString(), ActionBuy, decimal.RequireFromString("0.1"),
		decimal.NewFromInt(3000), decimal.NewFromInt(30000), time.Now())
	require.NoError(t, err)

	row := buy.Row(pair)
	assert.Equal(t, "+0.10000000 BTC", row.Asset)
	assert.Equal(t, "-$3,000.00", row.Quote)

	sell := buy
	sell.Action = ActionSell
	row = sell.Row(pair)
	assert.Equal(t, "-0.10000000 BTC", row.Asset)
	assert.Equal(t, "+$3,000.00", row.Quote)
}

func TestWalletState_Apply(t *testing.T) {
	w := WalletState{Asset: decimal.Zero, Quote: decimal.NewFromInt(10000)}
	trade := Trade{Action: ActionBuy, AmountAsset: decimal.RequireFromString("0.1"), AmountQuote: decimal.NewFromInt(3000)}

	after := w.Apply(trade)
	assert.True(t, after.Asset.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, after.Quote.Equal(decimal.NewFromInt(7000)))

	trade.Action = ActionSell
	assert.True(t, after.Apply(trade).Equal(w))
}

func TestParsePair(t *testing.T) {
	p, err := ParsePair("btc_eur")
	require.NoError(t, err)
	assert.Equal(t, Pair{From: "BTC", To: "EUR"}, p)
	assert.Equal(t, "BTCEUR", p.Symbol())

	_, err = ParsePair("BTCEUR")
	assert.Error(t, err)
	_, err = ParsePair("_EUR")
	assert.Error(t, err)
}

func TestFormatQuote(t *testing.T) {
	assert.Equal(t, "$1,234.57", FormatQuote(decimal.RequireFromString("1234.567"), "USD"))
	assert.Equal(t, "12.50 USDT", FormatQuote(decimal.RequireFromString("12.5"), "USDT"))
	assert.Equal(t, "0.00000001 BTC", FormatAsset(decimal.RequireFromString("0.00000001"), "BTC"))
}

func TestSeriesValidate(t *testing.T) {
	now := time.Now()
	ok := PriceSeries{Points: []PricePoint{
		{Time: now, Price: decimal.NewFromInt(1)},
		{Time: now, Price: decimal.NewFromInt(2)},
		{Time: now.Add(time.Minute), Price: decimal.NewFromInt(3)},
	}}
	require.NoError(t, ok.Validate())

	unordered := PriceSeries{Points: []PricePoint{
		{Time: now.Add(time.Minute), Price: decimal.NewFromInt(1)},
		{Time: now, Price: decimal.NewFromInt(2)},
	}}
	assert.Error(t, unordered.Validate())

	nonPositive := PriceSeries{Points: []PricePoint{{Time: now, Price: decimal.Zero}}}
	assert.ErrorIs(t, nonPositive.Validate(), ErrInvalidPrice)

	assert.Error(t, PriceSeries{}.Validate())
}

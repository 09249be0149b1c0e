package indicators

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closes(n int, start, step int64) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.NewFromInt(start + int64(i)*step)
	}
	return out
}

func TestEMA(t *testing.T) {
	t.Run("flat input stays flat", func(t *testing.T) {
		flat := make([]decimal.Decimal, 30)
		for i := range flat {
			flat[i] = decimal.NewFromInt(100)
		}
		ema, err := EMA(flat, 10)
		require.NoError(t, err)
		require.NotEmpty(t, ema)
		assert.LessOrEqual(t, len(ema), len(flat))
		for _, v := range ema {
			assert.True(t, v.Round(6).Equal(decimal.NewFromInt(100)), "got %s", v)
		}
	})

	t.Run("not enough data", func(t *testing.T) {
		_, err := EMA(closes(5, 1, 1), 10)
		assert.ErrorIs(t, err, ErrNotEnoughData)
	})

	t.Run("invalid period", func(t *testing.T) {
		_, err := EMA(closes(5, 1, 1), 0)
		assert.Error(t, err)
	})
}

func TestRSI(t *testing.T) {
	rsi, err := RSI(closes(40, 100, 1), 14)
	require.NoError(t, err)
	require.NotEmpty(t, rsi)
	// a strictly rising series saturates the index
	last := rsi[len(rsi)-1]
	assert.True(t, last.GreaterThan(decimal.NewFromInt(90)), "got %s", last)

	_, err = RSI(closes(14, 100, 1), 14)
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestMACD(t *testing.T) {
	_, err := MACD(closes(10, 100, 1))
	assert.ErrorIs(t, err, ErrNotEnoughData)

	_, err = MACD(closes(33, 100, 1))
	assert.ErrorIs(t, err, ErrNotEnoughData)

	macd, err := MACD(closes(60, 100, 1))
	require.NoError(t, err)
	assert.Len(t, macd, 60-33)

	macd, err = MACD(closes(34, 100, 1))
	require.NoError(t, err)
	assert.Len(t, macd, 1)
}

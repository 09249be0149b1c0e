package chart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/paperdash/internal/domain"
)

func pts(prices ...string) []domain.PricePoint {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = domain.PricePoint{Time: start.Add(time.Duration(i) * 15 * time.Minute), Price: decimal.RequireFromString(p)}
	}
	return out
}

func rising(n int) []domain.PricePoint {
	prices := make([]string, n)
	for i := range prices {
		prices[i] = decimal.NewFromInt(int64(30000 + i*10)).String()
	}
	return pts(prices...)
}

func TestBoundsOf(t *testing.T) {
	t.Run("empty uses default band", func(t *testing.T) {
		b := BoundsOf(nil)
		assert.True(t, b.Lower.Equal(DefaultLower))
		assert.True(t, b.Upper.Equal(DefaultUpper))
	})

	t.Run("pads range by 5%", func(t *testing.T) {
		b := BoundsOf(pts("100", "200", "150"))
		assert.True(t, b.Lower.Equal(decimal.NewFromInt(95)), "lower %s", b.Lower)
		assert.True(t, b.Upper.Equal(decimal.NewFromInt(205)), "upper %s", b.Upper)
	})

	t.Run("flat series is not degenerate", func(t *testing.T) {
		b := BoundsOf(pts("30000", "30000", "30000"))
		assert.True(t, b.Lower.LessThan(b.Upper))
		assert.True(t, b.Lower.Equal(decimal.NewFromInt(29700)))
		assert.True(t, b.Upper.Equal(decimal.NewFromInt(30300)))
	})

	t.Run("single point", func(t *testing.T) {
		b := BoundsOf(pts("0.01"))
		assert.True(t, b.Lower.LessThan(b.Upper))
	})
}

func TestDownsample(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		maxPoints int
		want      int
	}{
		{name: "disabled", n: 20, maxPoints: 0, want: 20},
		{name: "already small", n: 5, maxPoints: 8, want: 5},
		{name: "mobile width", n: 96, maxPoints: 8, want: 8},
		{name: "odd length", n: 11, maxPoints: 4, want: 4},
		{name: "two points max", n: 50, maxPoints: 2, want: 2},
		{name: "one point max", n: 50, maxPoints: 1, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := rising(tt.n)
			out := Downsample(series, tt.maxPoints)
			require.Len(t, out, tt.want)
			assert.Equal(t, series[0], out[0])
			assert.Equal(t, series[len(series)-1], out[len(out)-1])
			for i := 1; i < len(out); i++ {
				assert.True(t, out[i].Time.After(out[i-1].Time))
			}
		})
	}

	t.Run("endpoints for every size", func(t *testing.T) {
		for n := 1; n <= 40; n++ {
			for k := 1; k <= 12; k++ {
				series := rising(n)
				out := Downsample(series, k)
				require.NotEmpty(t, out)
				assert.Equal(t, series[0], out[0], "n=%d k=%d", n, k)
				assert.Equal(t, series[n-1], out[len(out)-1], "n=%d k=%d", n, k)
				if n > 2 && k >= 2 {
					assert.LessOrEqual(t, len(out), k, "n=%d k=%d", n, k)
				}
			}
		}
	})

	t.Run("deterministic and does not alias", func(t *testing.T) {
		series := rising(30)
		a := Downsample(series, 7)
		b := Downsample(series, 7)
		assert.Equal(t, a, b)

		small := Downsample(series, 100)
		small[0].Price = decimal.Zero
		assert.False(t, series[0].Price.IsZero())
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Downsample(nil, 8))
	})
}

func TestCollapse(t *testing.T) {
	points := pts("100", "110", "120", "130")
	points[2].Time = points[1].Time
	points[3].Time = points[1].Time.Add(time.Hour)

	got := Collapse(points)
	require.Len(t, got, 3)
	assert.True(t, got[1].Price.Equal(decimal.NewFromInt(120)), "last duplicate wins")
	assert.True(t, got[2].Price.Equal(decimal.NewFromInt(130)))
	assert.Len(t, points, 4, "input untouched")
	assert.True(t, points[1].Price.Equal(decimal.NewFromInt(110)))

	assert.Empty(t, Collapse(nil))
}

func TestPeriodChange(t *testing.T) {
	_, ok := PeriodChange(nil)
	assert.False(t, ok)
	_, ok = PeriodChange(pts("100"))
	assert.False(t, ok)

	c, ok := PeriodChange(pts("200", "150", "250"))
	require.True(t, ok)
	assert.True(t, c.Delta.Equal(decimal.NewFromInt(50)))
	assert.True(t, c.Percent.Equal(decimal.NewFromInt(25)))
	assert.True(t, c.IsPositive)

	c, ok = PeriodChange(pts("200", "150"))
	require.True(t, ok)
	assert.True(t, c.Delta.Equal(decimal.NewFromInt(-50)))
	assert.False(t, c.IsPositive)

	c, ok = PeriodChange(pts("200", "200"))
	require.True(t, ok)
	assert.True(t, c.IsPositive)
}

func TestPriceLabels(t *testing.T) {
	labels := PriceLabels(Bounds{Lower: decimal.NewFromInt(100), Upper: decimal.NewFromInt(200)}, 5)
	require.Len(t, labels, 5)
	want := []int64{200, 175, 150, 125, 100}
	for i, w := range want {
		assert.True(t, labels[i].Equal(decimal.NewFromInt(w)), "label %d = %s", i, labels[i])
	}

	assert.Nil(t, PriceLabels(Bounds{}, 0))
	assert.Len(t, PriceLabels(Bounds{Upper: decimal.NewFromInt(1)}, 1), 1)
}

func TestOverlay(t *testing.T) {
	series := rising(40)

	ema, ok := EMA(series, 10)
	require.True(t, ok)
	require.NotEmpty(t, ema)
	assert.Equal(t, series[len(series)-1].Time, ema[len(ema)-1].Time)

	_, ok = EMA(series[:5], 10)
	assert.False(t, ok)

	rsi, ok := RSI(series, 14)
	require.True(t, ok)
	assert.True(t, rsi.GreaterThan(decimal.NewFromInt(50)))

	_, ok = RSI(nil, 14)
	assert.False(t, ok)

	macd, ok := MACD(series)
	require.True(t, ok)
	require.NotEmpty(t, macd)
	assert.Equal(t, series[len(series)-1].Time, macd[len(macd)-1].Time)
	assert.True(t, macd[len(macd)-1].Price.IsPositive(), "rising series has fast EMA above slow")

	_, ok = MACD(series[:20])
	assert.False(t, ok)
}

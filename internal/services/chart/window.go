// Package chart derives display windows and statistics from a price series.
package chart

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
)

var (
	// DefaultLower and DefaultUpper form the band used before any data arrives.
	DefaultLower = decimal.NewFromInt(100000)
	DefaultUpper = decimal.NewFromInt(150000)

	rangePadding = decimal.RequireFromString("0.05")
	flatPadding  = decimal.RequireFromString("0.01")
	hundred      = decimal.NewFromInt(100)
)

// Bounds is the vertical display range of a chart.
type Bounds struct {
	Lower decimal.Decimal `json:"lower"`
	Upper decimal.Decimal `json:"upper"`
}

// Change is the move between the first and last point of a window.
type Change struct {
	Delta      decimal.Decimal `json:"delta"`
	Percent    decimal.Decimal `json:"percent"`
	IsPositive bool            `json:"is_positive"`
}

// BoundsOf pads the min/max of points by 5% of their range. A flat series
// is padded by 1% of its price level so Lower < Upper always holds.
// An empty series gets the default band.
func BoundsOf(points []domain.PricePoint) Bounds {
	ex, ok := domain.ExtremesOf(points)
	if !ok {
		return Bounds{Lower: DefaultLower, Upper: DefaultUpper}
	}

	spread := ex.Highest.Sub(ex.Lowest)
	if spread.IsZero() {
		pad := ex.Highest.Abs().Mul(flatPadding)
		if pad.IsZero() {
			pad = decimal.NewFromInt(1)
		}
		return Bounds{Lower: ex.Lowest.Sub(pad), Upper: ex.Highest.Add(pad)}
	}

	pad := spread.Mul(rangePadding)
	return Bounds{Lower: ex.Lowest.Sub(pad), Upper: ex.Highest.Add(pad)}
}

// Collapse keeps only the last of consecutive points sharing a timestamp.
// Series are appended in time order, so a later duplicate overrides an
// earlier one for display.
func Collapse(points []domain.PricePoint) []domain.PricePoint {
	out := make([]domain.PricePoint, 0, len(points))
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].Time.Equal(p.Time) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// Downsample keeps every ceil(len/maxPoints)-th point plus the last one.
// The first and last points are always kept and the result never exceeds
// maxPoints (a maxPoints of 1 is treated as 2). maxPoints <= 0 disables it.
func Downsample(points []domain.PricePoint, maxPoints int) []domain.PricePoint {
	if maxPoints <= 0 || len(points) <= maxPoints {
		return append([]domain.PricePoint(nil), points...)
	}
	if maxPoints < 2 {
		maxPoints = 2
	}

	step := (len(points) + maxPoints - 1) / maxPoints
	last := len(points) - 1

	out := make([]domain.PricePoint, 0, maxPoints+1)
	for i := 0; i < last; i += step {
		out = append(out, points[i])
	}
	out = append(out, points[last])

	if len(out) > maxPoints {
		// drop the interior sample closest to the end
		out = append(out[:len(out)-2], out[len(out)-1])
	}
	return out
}

// PeriodChange compares the last point with the first. It is absent for fewer than two points.
func PeriodChange(points []domain.PricePoint) (Change, bool) {
	if len(points) < 2 {
		return Change{}, false
	}

	first := points[0].Price
	delta := points[len(points)-1].Price.Sub(first)

	c := Change{Delta: delta, Percent: decimal.Zero, IsPositive: !delta.IsNegative()}
	if first.IsPositive() {
		c.Percent = delta.Div(first).Mul(hundred)
	}
	return c, true
}

// PriceLabels returns count axis labels evenly spaced from Upper down to Lower.
func PriceLabels(b Bounds, count int) []decimal.Decimal {
	if count <= 0 {
		return nil
	}
	if count == 1 {
		return []decimal.Decimal{b.Upper.Round(domain.QuotePlaces)}
	}

	step := b.Upper.Sub(b.Lower).Div(decimal.NewFromInt(int64(count - 1)))
	labels := make([]decimal.Decimal, count)
	for i := range labels {
		labels[i] = b.Upper.Sub(step.Mul(decimal.NewFromInt(int64(i)))).Round(domain.QuotePlaces)
	}
	return labels
}

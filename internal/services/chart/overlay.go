package chart

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/pkg/indicators"
)

// EMA returns an exponential moving average aligned to the tail of points.
// It is absent when the series is shorter than the period.
func EMA(points []domain.PricePoint, period int) ([]domain.PricePoint, bool) {
	values, err := indicators.EMA(prices(points), period)
	if err != nil || len(values) == 0 {
		return nil, false
	}
	return alignTail(points, values), true
}

// MACD returns the 12/26 MACD line aligned to the tail of points.
// It is absent for series shorter than the slow period.
func MACD(points []domain.PricePoint) ([]domain.PricePoint, bool) {
	values, err := indicators.MACD(prices(points))
	if err != nil || len(values) == 0 {
		return nil, false
	}
	return alignTail(points, values), true
}

// RSI returns the latest relative strength index value.
func RSI(points []domain.PricePoint, period int) (decimal.Decimal, bool) {
	values, err := indicators.RSI(prices(points), period)
	if err != nil || len(values) == 0 {
		return decimal.Zero, false
	}
	return values[len(values)-1].Round(domain.QuotePlaces), true
}

func prices(points []domain.PricePoint) []decimal.Decimal {
	out := make([]decimal.Decimal, len(points))
	for i, p := range points {
		out[i] = p.Price
	}
	return out
}

func alignTail(points []domain.PricePoint, values []decimal.Decimal) []domain.PricePoint {
	offset := len(points) - len(values)
	if offset < 0 {
		values = values[-offset:]
		offset = 0
	}
	out := make([]domain.PricePoint, len(values))
	for i, v := range values {
		out[i] = domain.PricePoint{Time: points[offset+i].Time, Price: v.Round(domain.QuotePlaces)}
	}
	return out
}

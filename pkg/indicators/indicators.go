// Package indicators computes technical indicators (EMA, MACD, RSI) over closing prices.
package indicators

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const rsiNeutral = 50

// macdMinPoints covers the slow EMA and the signal warmup of the default
// MACD, whose line starts after 26+9-2 inputs.
const macdMinPoints = 34

// ErrNotEnoughData is returned when the input is shorter than the indicator warmup.
var ErrNotEnoughData = errors.New("not enough data points")

// EMA calculates the Exponential Moving Average for the given period.
// The result is aligned with the tail of closes.
func EMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if period < 1 {
		return nil, errors.Errorf("invalid EMA period %d", period)
	}
	if len(closes) < period {
		return nil, errors.Wrapf(ErrNotEnoughData, "EMA%d needs %d, got %d", period, period, len(closes))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	out := ema.Compute(helper.SliceToChan(decimalsToFloat64(closes)))

	return float64ToDecimals(helper.ChanToSlice(out)), nil
}

// RSI calculates the Relative Strength Index for the given period.
func RSI(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if period < 1 {
		return nil, errors.Errorf("invalid RSI period %d", period)
	}
	if len(closes) < period+1 {
		return nil, errors.Wrapf(ErrNotEnoughData, "RSI%d needs %d, got %d", period, period+1, len(closes))
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	values := helper.ChanToSlice(rsi.Compute(helper.SliceToChan(decimalsToFloat64(closes))))
	for i, v := range values {
		// no gains and no losses in the window
		if math.IsNaN(v) {
			values[i] = rsiNeutral
		}
	}

	return float64ToDecimals(values), nil
}

// MACD calculates the MACD line with the default 12/26/9 setup.
func MACD(closes []decimal.Decimal) ([]decimal.Decimal, error) {
	if len(closes) < macdMinPoints {
		return nil, errors.Wrapf(ErrNotEnoughData, "MACD needs %d, got %d", macdMinPoints, len(closes))
	}

	macd := trend.NewMacd[float64]()
	macdChan, signalChan := macd.Compute(helper.SliceToChan(decimalsToFloat64(closes)))
	// drain signal channel to prevent blocking
	go func() {
		for range signalChan {
		}
	}()

	return float64ToDecimals(helper.ChanToSlice(macdChan)), nil
}

func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

func float64ToDecimals(floats []float64) []decimal.Decimal {
	result := make([]decimal.Decimal, len(floats))
	for i, f := range floats {
		result[i] = decimal.NewFromFloat(f)
	}
	return result
}

package pricer

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
)

// BinanceHistory reads close prices from Binance public klines.
type BinanceHistory struct {
	client   *binance.Client
	quote    string
	interval string
	limit    int
}

// NewBinanceHistory creates a kline source quoting pair.From against marketQuote (e.g. USDT).
func NewBinanceHistory(client *binance.Client, marketQuote string, interval time.Duration, limit int) *BinanceHistory {
	return &BinanceHistory{client: client, quote: marketQuote, interval: klineInterval(interval), limit: limit}
}

func (b *BinanceHistory) Name() string { return "binance" }

func (b *BinanceHistory) NativeCurrency() string { return b.quote }

// History fetches the latest klines and uses each close as the point price at close time.
func (b *BinanceHistory) History(ctx context.Context, pair domain.Pair) ([]domain.PricePoint, error) {
	symbol := domain.Pair{From: pair.From, To: b.quote}.Symbol()

	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(b.interval).
		Limit(b.limit).
		Do(ctx)
	if err != nil {
		return nil, fetchFailed(err, "binance klines for %s", symbol)
	}

	points := make([]domain.PricePoint, 0, len(klines))
	for i, k := range klines {
		closePrice, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(domain.ErrUpstreamMalformedResponse, "binance close price at %d: %v", i, err)
		}
		points = append(points, domain.PricePoint{Time: time.UnixMilli(k.CloseTime), Price: closePrice})
	}
	return points, nil
}

// klineInterval renders a duration in the 15m / 1h / 1d form used by exchanges.
func klineInterval(d time.Duration) string {
	switch {
	case d <= time.Minute:
		return "1m"
	case d <= 5*time.Minute:
		return "5m"
	case d <= 15*time.Minute:
		return "15m"
	case d <= 30*time.Minute:
		return "30m"
	case d <= time.Hour:
		return "1h"
	case d <= 4*time.Hour:
		return "4h"
	default:
		return "1d"
	}
}

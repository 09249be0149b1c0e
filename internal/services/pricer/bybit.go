package pricer

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
)

const bybitMaxPerRequest = 200

// BybitHistory reads close prices from Bybit V5 spot klines.
type BybitHistory struct {
	client   *bybit.Client
	quote    string
	interval time.Duration
	limit    int
}

// NewBybitHistory creates a kline source quoting pair.From against marketQuote.
func NewBybitHistory(client *bybit.Client, marketQuote string, interval time.Duration, limit int) *BybitHistory {
	if limit <= 0 || limit > bybitMaxPerRequest {
		limit = bybitMaxPerRequest
	}
	return &BybitHistory{client: client, quote: marketQuote, interval: interval, limit: limit}
}

func (b *BybitHistory) Name() string { return "bybit" }

func (b *BybitHistory) NativeCurrency() string { return b.quote }

// History fetches klines. Bybit lists them newest first, the result is oldest first.
func (b *BybitHistory) History(ctx context.Context, pair domain.Pair) ([]domain.PricePoint, error) {
	symbol := domain.Pair{From: pair.From, To: b.quote}.Symbol()
	limit := b.limit

	// the SDK call has no context, bail out early if the deadline has already passed
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := b.client.V5().Market().GetKline(bybit.V5GetKlineParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   bybit.SymbolV5(symbol),
		Interval: bybit.Interval(bybitInterval(b.interval)),
		Limit:    &limit,
	})
	if err != nil {
		return nil, fetchFailed(err, "bybit klines for %s", symbol)
	}
	if result == nil {
		return nil, errors.Wrapf(domain.ErrUpstreamMalformedResponse, "empty bybit result for %s", symbol)
	}

	points := make([]domain.PricePoint, 0, len(result.Result.List))
	for i, k := range result.Result.List {
		ms, err := strconv.ParseInt(k.StartTime, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(domain.ErrUpstreamMalformedResponse, "bybit start time at %d: %v", i, err)
		}
		closePrice, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(domain.ErrUpstreamMalformedResponse, "bybit close price at %d: %v", i, err)
		}
		points = append(points, domain.PricePoint{Time: time.UnixMilli(ms).Add(b.interval), Price: closePrice})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

// bybitInterval converts a duration to Bybit's minute count or D.
func bybitInterval(d time.Duration) string {
	switch klineInterval(d) {
	case "1m":
		return "1"
	case "5m":
		return "5"
	case "15m":
		return "15"
	case "30m":
		return "30"
	case "1h":
		return "60"
	case "4h":
		return "240"
	default:
		return "D"
	}
}

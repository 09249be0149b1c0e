package pricer

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/paperdash/internal/domain"
)

// HyperliquidHistory reads close prices from Hyperliquid candle snapshots.
// Hyperliquid quotes every coin in USD.
type HyperliquidHistory struct {
	info     *hyperliquid.Info
	interval time.Duration
	limit    int
}

// NewHyperliquidHistory creates a candle source.
func NewHyperliquidHistory(info *hyperliquid.Info, interval time.Duration, limit int) *HyperliquidHistory {
	if limit <= 0 {
		limit = DefaultSamples
	}
	return &HyperliquidHistory{info: info, interval: interval, limit: limit}
}

func (h *HyperliquidHistory) Name() string { return "hyperliquid" }

func (h *HyperliquidHistory) NativeCurrency() string { return "USD" }

// History fetches the last limit candles of pair.From.
func (h *HyperliquidHistory) History(ctx context.Context, pair domain.Pair) ([]domain.PricePoint, error) {
	if h.info == nil {
		return nil, errors.Wrap(domain.ErrUpstreamFetchFailed, "hyperliquid info client is nil")
	}

	step := h.interval
	if step <= 0 {
		step = DefaultSampleInterval
	}
	endMs := time.Now().UnixMilli()
	// two extra candles absorb boundary rounding
	startMs := endMs - int64(h.limit+2)*step.Milliseconds()
	coin := strings.ToUpper(pair.From)

	candles, err := h.info.CandlesSnapshot(ctx, coin, klineInterval(step), startMs, endMs)
	if err != nil {
		return nil, fetchFailed(err, "hyperliquid candles for %s", coin)
	}
	if len(candles) > h.limit {
		candles = candles[len(candles)-h.limit:]
	}

	points := make([]domain.PricePoint, 0, len(candles))
	for i, c := range candles {
		closePrice, err := decimal.NewFromString(c.Close)
		if err != nil {
			return nil, errors.Wrapf(domain.ErrUpstreamMalformedResponse, "hyperliquid close at %d: %v", i, err)
		}
		points = append(points, domain.PricePoint{Time: time.UnixMilli(c.TimeClose), Price: closePrice})
	}
	return points, nil
}

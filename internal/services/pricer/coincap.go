package pricer

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/pkg/retrier"
)

// DefaultCoinCapURL is the history endpoint; {asset} and {interval} are substituted.
const DefaultCoinCapURL = "https://rest.coincap.io/v3/assets/{asset}/history?interval={interval}"

var coinCapAssets = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"XRP":  "xrp",
	"DOGE": "dogecoin",
	"ADA":  "cardano",
	"LTC":  "litecoin",
}

// CoinCap reads USD price history from a CoinCap-compatible endpoint
// returning {data:[{time, priceUsd}], timestamp}.
type CoinCap struct {
	client   *http.Client
	retrier  *retrier.Retrier
	url      string
	apiKey   string
	interval time.Duration
	limit    int
}

// NewCoinCap creates a CoinCap history source. limit keeps only the newest points when > 0.
func NewCoinCap(client *http.Client, urlTemplate, apiKey string, interval time.Duration, limit int) *CoinCap {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if urlTemplate == "" {
		urlTemplate = DefaultCoinCapURL
	}
	return &CoinCap{
		client:   client,
		retrier:  newRetrier(),
		url:      urlTemplate,
		apiKey:   apiKey,
		interval: interval,
		limit:    limit,
	}
}

func (c *CoinCap) Name() string { return "coincap" }

func (c *CoinCap) NativeCurrency() string { return "USD" }

type coinCapHistory struct {
	Data []struct {
		PriceUsd string      `json:"priceUsd"`
		Time     json.Number `json:"time"`
	} `json:"data"`
	Timestamp json.Number `json:"timestamp"`
}

// History fetches the price history of pair.From.
func (c *CoinCap) History(ctx context.Context, pair domain.Pair) ([]domain.PricePoint, error) {
	asset, ok := coinCapAssets[strings.ToUpper(pair.From)]
	if !ok {
		asset = strings.ToLower(pair.From)
	}
	url := strings.NewReplacer("{asset}", asset, "{interval}", coinCapInterval(c.interval)).Replace(c.url)

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	var body coinCapHistory
	if err := getJSON(ctx, c.client, c.retrier, url, header, &body); err != nil {
		return nil, err
	}
	if body.Data == nil {
		return nil, errors.Wrap(domain.ErrUpstreamMalformedResponse, "coincap response has no data field")
	}

	points := make([]domain.PricePoint, 0, len(body.Data))
	for i, item := range body.Data {
		ms, err := item.Time.Int64()
		if err != nil {
			return nil, errors.Wrapf(domain.ErrUpstreamMalformedResponse, "coincap time at %d: %v", i, err)
		}
		price, err := decimal.NewFromString(item.PriceUsd)
		if err != nil {
			return nil, errors.Wrapf(domain.ErrUpstreamMalformedResponse, "coincap priceUsd at %d: %v", i, err)
		}
		points = append(points, domain.PricePoint{Time: time.UnixMilli(ms), Price: price})
	}

	if c.limit > 0 && len(points) > c.limit {
		points = points[len(points)-c.limit:]
	}
	return points, nil
}

// coinCapInterval maps a duration onto the closest supported interval name.
func coinCapInterval(d time.Duration) string {
	switch {
	case d <= time.Minute:
		return "m1"
	case d <= 5*time.Minute:
		return "m5"
	case d <= 15*time.Minute:
		return "m15"
	case d <= 30*time.Minute:
		return "m30"
	case d <= time.Hour:
		return "h1"
	case d <= 2*time.Hour:
		return "h2"
	case d <= 6*time.Hour:
		return "h6"
	case d <= 12*time.Hour:
		return "h12"
	default:
		return "d1"
	}
}

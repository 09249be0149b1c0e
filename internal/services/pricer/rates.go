package pricer

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/pkg/retrier"
)

const (
	// DefaultRatesURL answers {rates:{EUR: 0.92, ...}} for the given base.
	DefaultRatesURL = "https://api.frankfurter.app/latest?from={base}"
	// DefaultRatesPath selects the quote currency from the response.
	DefaultRatesPath = "$.rates.{quote}"
)

// HTTPRates looks up conversion rates from a JSON endpoint using a JSONPath expression.
type HTTPRates struct {
	client  *http.Client
	retrier *retrier.Retrier
	url     string
	path    string
}

// NewHTTPRates creates a rate source. Empty templates fall back to the defaults.
func NewHTTPRates(client *http.Client, urlTemplate, pathTemplate string) *HTTPRates {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if urlTemplate == "" {
		urlTemplate = DefaultRatesURL
	}
	if pathTemplate == "" {
		pathTemplate = DefaultRatesPath
	}
	return &HTTPRates{client: client, retrier: newRetrier(), url: urlTemplate, path: pathTemplate}
}

// Rate returns how many quote units one base unit buys.
func (r *HTTPRates) Rate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	repl := strings.NewReplacer("{base}", base, "{quote}", quote)

	var body any
	if err := getJSON(ctx, r.client, r.retrier, repl.Replace(r.url), nil, &body); err != nil {
		return decimal.Zero, err
	}

	path := repl.Replace(r.path)
	val, err := jsonpath.Get(path, body)
	if err != nil {
		return decimal.Zero, errors.Wrapf(domain.ErrUpstreamMalformedResponse, "rate %s->%s at %s: %v", base, quote, path, err)
	}
	// jsonpath may wrap a single match in a list
	if list, ok := val.([]any); ok {
		if len(list) == 0 {
			return decimal.Zero, errors.Wrapf(domain.ErrUpstreamMalformedResponse, "rate %s->%s not found at %s", base, quote, path)
		}
		val = list[0]
	}

	rate, err := toDecimal(val)
	if err != nil {
		return decimal.Zero, errors.Wrapf(domain.ErrUpstreamMalformedResponse, "rate %s->%s: %v", base, quote, err)
	}
	return rate, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case json.Number:
		return decimal.NewFromString(t.String())
	case string:
		return decimal.NewFromString(t)
	case float64:
		return decimal.NewFromFloat(t), nil
	}
	return decimal.Zero, errors.Errorf("unexpected value %v (%T)", v, v)
}

package pricer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 8 * time.Second

// Provider fetches a price series and never fails: when the upstream is
// missing or broken it falls back to a synthetic series.
type Provider struct {
	history   HistorySource
	rates     RateSource
	synthetic *Synthetic
	timeout   time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHistory sets the upstream price history source. Without it every fetch is synthetic.
func WithHistory(h HistorySource) ProviderOption {
	return func(p *Provider) {
		p.history = h
	}
}

// WithRates sets the currency conversion source.
func WithRates(r RateSource) ProviderOption {
	return func(p *Provider) {
		p.rates = r
	}
}

// WithRequestTimeout bounds a whole upstream fetch.
func WithRequestTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) {
		p.timeout = d
	}
}

// WithNow overrides the clock used to stamp series origins.
func WithNow(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates a provider backed by the synthetic generator.
func NewProvider(synthetic *Synthetic, logger *zap.Logger, opts ...ProviderOption) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{
		synthetic: synthetic,
		timeout:   defaultRequestTimeout,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Live reports whether an upstream is configured.
func (p *Provider) Live() bool {
	return p.history != nil
}

// Fetch returns a series for pair. The Origin of the result is the moment
// the fetch started so the store can discard results that lost a race.
func (p *Provider) Fetch(ctx context.Context, pair domain.Pair) domain.PriceSeries {
	origin := p.now()

	if p.history == nil {
		return p.synthesize(origin)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	series, err := p.fetchLive(fetchCtx, pair, origin)
	if err != nil {
		p.logger.Warn("falling back to synthetic prices",
			zap.String("source", p.history.Name()),
			zap.String("pair", pair.String()),
			zap.String("kind", failureKind(err)),
			zap.Error(err))
		return p.synthesize(origin)
	}

	p.logger.Debug("fetched live prices",
		zap.String("source", series.Source),
		zap.Int("points", series.Len()),
		zap.Duration("took", time.Since(origin)))
	return series
}

func (p *Provider) fetchLive(ctx context.Context, pair domain.Pair, origin time.Time) (domain.PriceSeries, error) {
	rate, err := p.rate(ctx, pair)
	if err != nil {
		return domain.PriceSeries{}, errors.Wrap(err, "conversion rate")
	}

	points, err := p.history.History(ctx, pair)
	if err != nil {
		return domain.PriceSeries{}, errors.Wrap(err, "price history")
	}
	if len(points) == 0 {
		return domain.PriceSeries{}, errors.Wrap(domain.ErrUpstreamMalformedResponse, "empty price history")
	}

	series := domain.PriceSeries{
		Points:     Normalize(points, rate),
		Provenance: domain.ProvenanceLive,
		Source:     p.history.Name(),
		Origin:     origin,
	}
	if err := series.Validate(); err != nil {
		return domain.PriceSeries{}, errors.Wrap(domain.ErrUpstreamMalformedResponse, err.Error())
	}
	return series, nil
}

func (p *Provider) rate(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	base, quote := fiatOf(p.history.NativeCurrency()), fiatOf(pair.To)
	if base == quote {
		return decimal.NewFromInt(1), nil
	}
	if p.rates == nil {
		return decimal.Zero, errors.Wrapf(domain.ErrUpstreamFetchFailed, "no rate source for %s->%s", base, quote)
	}

	rate, err := p.rates.Rate(ctx, base, quote)
	if err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, errors.Wrapf(domain.ErrUpstreamMalformedResponse, "non-positive rate %s", rate)
	}
	return rate, nil
}

func (p *Provider) synthesize(origin time.Time) domain.PriceSeries {
	s := p.synthetic.Generate(origin)
	s.Origin = origin
	return s
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrUpstreamMalformedResponse):
		return "malformed_response"
	default:
		return "fetch_failed"
	}
}

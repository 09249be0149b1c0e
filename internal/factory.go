package internal

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/paperdash/config"
	"github.com/vadiminshakov/paperdash/internal/clients"
	"github.com/vadiminshakov/paperdash/internal/services/pricer"
)

// NewHistorySource is the single place that maps a configured source name to
// an upstream implementation. The synthetic source has no upstream and yields nil,
// as does coincap without an API key.
func NewHistorySource(conf config.Config, httpClient *http.Client) (pricer.HistorySource, error) {
	switch conf.Source {
	case config.SourceSynthetic:
		return nil, nil
	case config.SourceCoinCap:
		if conf.CoinCapAPIKey == "" {
			return nil, nil
		}
		return pricer.NewCoinCap(httpClient, conf.HistoryURL, conf.CoinCapAPIKey, conf.SampleInterval, conf.Samples), nil
	case config.SourceBinance:
		return pricer.NewBinanceHistory(clients.NewBinanceClient("", ""), conf.MarketQuote, conf.SampleInterval, conf.Samples), nil
	case config.SourceBybit:
		return pricer.NewBybitHistory(clients.NewBybitClient("", ""), conf.MarketQuote, conf.SampleInterval, conf.Samples), nil
	case config.SourceHyperliquid:
		c, err := clients.NewHyperliquidClient(conf.HyperliquidKey, conf.HyperliquidURL)
		if err != nil {
			return nil, errors.Wrap(err, "hyperliquid client")
		}
		return pricer.NewHyperliquidHistory(c.Info(), conf.SampleInterval, conf.Samples), nil
	default:
		return nil, errors.Errorf("unsupported source: %s", conf.Source)
	}
}

// NewProvider builds the market data provider described by conf.
func NewProvider(conf config.Config, logger *zap.Logger) (*pricer.Provider, error) {
	httpClient := &http.Client{Timeout: conf.RequestTimeout}

	history, err := NewHistorySource(conf, httpClient)
	if err != nil {
		return nil, err
	}
	if history == nil && conf.Source != config.SourceSynthetic {
		logger.Warn("no credentials for upstream, serving synthetic prices",
			zap.String("source", conf.Source),
			zap.String("env", config.EnvCoinCapAPIKey))
	}

	synthetic := pricer.NewSynthetic(conf.Samples, conf.SampleInterval, conf.BasePrice,
		rand.New(rand.NewSource(time.Now().UnixNano())))

	opts := []pricer.ProviderOption{pricer.WithRequestTimeout(conf.RequestTimeout)}
	if history != nil {
		opts = append(opts,
			pricer.WithHistory(history),
			pricer.WithRates(pricer.NewHTTPRates(httpClient, conf.RatesURL, conf.RatesPath)))
	}
	return pricer.NewProvider(synthetic, logger.With(zap.String("component", "pricer")), opts...), nil
}

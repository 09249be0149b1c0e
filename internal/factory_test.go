package internal

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/paperdash/config"
	"github.com/vadiminshakov/paperdash/internal/domain"
)

func TestNewHistorySource(t *testing.T) {
	tests := []struct {
		source      string
		apiKey      string
		wantName    string
		expectError bool
	}{
		{source: config.SourceSynthetic},
		{source: config.SourceCoinCap, apiKey: "key", wantName: "coincap"},
		{source: config.SourceCoinCap},
		{source: config.SourceBinance, wantName: "binance"},
		{source: config.SourceBybit, wantName: "bybit"},
		{source: "kraken", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.source+tt.wantName, func(t *testing.T) {
			conf := config.Default()
			conf.Source = tt.source
			conf.CoinCapAPIKey = tt.apiKey

			h, err := NewHistorySource(conf, http.DefaultClient)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantName == "" {
				assert.Nil(t, h)
				return
			}
			require.NotNil(t, h)
			assert.Equal(t, tt.wantName, h.Name())
		})
	}
}

func TestNewProvider_Synthetic(t *testing.T) {
	p, err := NewProvider(config.Default(), zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Live())

	s := p.Fetch(context.Background(), domain.Pair{From: "BTC", To: "EUR"})
	assert.Equal(t, domain.ProvenanceSynthetic, s.Provenance)
	assert.Len(t, s.Points, config.Default().Samples)
}

func TestNewProvider_CoinCapWithoutKey(t *testing.T) {
	conf := config.Default()
	conf.Source = config.SourceCoinCap

	p, err := NewProvider(conf, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Live())
}

package setup

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/paperdash/config"
	"github.com/vadiminshakov/paperdash/internal/domain"
)

func TestSave_WritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultFile)

	a := defaultAnswers()
	a.pair = "eth_gbp"
	a.refreshInterval = "30s"
	a.genesisAsset = "1.5"
	a.chartMaxPoints = "0"
	require.NoError(t, Save(path, a))

	conf, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.Pair{From: "ETH", To: "GBP"}, conf.Pair)
	assert.Equal(t, 30*time.Second, conf.RefreshInterval)
	assert.True(t, conf.GenesisAsset.Equal(decimal.RequireFromString("1.5")))
	assert.Zero(t, conf.ChartMaxPoints)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validatePair("BTC_EUR"))
	assert.Error(t, validatePair("BTCEUR"))
	assert.Error(t, validatePair(" "))

	assert.NoError(t, validateDuration("5s"))
	assert.Error(t, validateDuration("0s"))
	assert.Error(t, validateDuration("soon"))

	assert.NoError(t, validateBalance("0"))
	assert.Error(t, validateBalance("-1"))
	assert.Error(t, validateBalance("x"))

	assert.NoError(t, validateCount("8"))
	assert.Error(t, validateCount("-2"))
}

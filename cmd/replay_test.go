package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/internal/services/ledger"
	"github.com/vadiminshakov/paperdash/internal/storage/tradejournal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func journaledSession(t *testing.T) tradejournal.Session {
	t.Helper()
	pair := domain.Pair{From: "BTC", To: "EUR"}
	genesis := domain.WalletState{Asset: decimal.Zero, Quote: d("10000")}

	l := ledger.New(pair, genesis, nil)
	_, err := l.Execute(domain.ActionBuy, d("0.1"), d("3000"), d("30000"))
	require.NoError(t, err)
	_, err = l.Execute(domain.ActionSell, d("0.05"), d("2000"), d("40000"))
	require.NoError(t, err)

	return tradejournal.Session{
		Header: tradejournal.Header{Pair: pair.String(), Genesis: genesis},
		Trades: l.Trades(),
	}
}

func TestVerify(t *testing.T) {
	wallet, err := verify(journaledSession(t))
	require.NoError(t, err)
	assert.True(t, wallet.Asset.Equal(d("0.05")))
	assert.True(t, wallet.Quote.Equal(d("9000")))
}

func TestVerify_RejectsOverdrawnSession(t *testing.T) {
	session := journaledSession(t)
	session.Header.Genesis = domain.WalletState{Asset: decimal.Zero, Quote: d("100")}

	_, err := verify(session)
	assert.ErrorIs(t, err, domain.ErrInsufficientQuote)
}

func TestVerify_BadPair(t *testing.T) {
	session := journaledSession(t)
	session.Header.Pair = "BTC"

	_, err := verify(session)
	assert.Error(t, err)
}

func TestSessionSnapshot(t *testing.T) {
	session := journaledSession(t)
	pair := domain.Pair{From: "BTC", To: "EUR"}
	now := time.Now()
	series := domain.PriceSeries{
		Points: []domain.PricePoint{
			{Time: now.Add(-time.Minute), Price: d("40000")},
			{Time: now, Price: d("50000")},
		},
		Provenance: domain.ProvenanceSynthetic,
		Source:     "test",
		Origin:     now,
	}

	snap := sessionSnapshot(session, pair, series)
	assert.Equal(t, "BTC_EUR", snap.Pair)
	require.NotNil(t, snap.Price)
	assert.True(t, snap.Price.Equal(d("50000")))
	require.Len(t, snap.Trades, 2)
	assert.Equal(t, domain.ActionSell, snap.Trades[0].Action)
	require.NotNil(t, snap.Stats)
	assert.True(t, snap.Stats.CurrentValue.Equal(d("2500")))
	require.NotNil(t, snap.Change)

	empty := sessionSnapshot(session, pair, domain.PriceSeries{})
	assert.Nil(t, empty.Price)
	assert.Nil(t, empty.Stats)
	assert.Len(t, empty.Trades, 2)
}

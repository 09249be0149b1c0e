package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/paperdash/internal"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/internal/events"
	"github.com/vadiminshakov/paperdash/internal/services/ledger"
	"github.com/vadiminshakov/paperdash/internal/storage/tradejournal"
)

var btcUsd = domain.Pair{From: "BTC", To: "USD"}

type fixedProvider struct{}

func (fixedProvider) Fetch(_ context.Context, _ domain.Pair) domain.PriceSeries {
	now := time.Now()
	points := make([]domain.PricePoint, 12)
	for i := range points {
		points[i] = domain.PricePoint{
			Time:  now.Add(time.Duration(i-len(points)) * time.Minute),
			Price: decimal.NewFromInt(int64(29000 + 100*i)),
		}
	}
	return domain.PriceSeries{Points: points, Provenance: domain.ProvenanceSynthetic, Source: "test", Origin: now}
}

type fixture struct {
	srv     *httptest.Server
	journal *tradejournal.WALStore
	b       *events.SnapshotBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	journal, err := tradejournal.NewSession(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	genesis := domain.WalletState{Asset: decimal.Zero, Quote: decimal.NewFromInt(10000)}
	require.NoError(t, journal.Begin(btcUsd, genesis))

	b := events.NewSnapshotBroadcaster(8)
	l := ledger.New(btcUsd, genesis, nil, ledger.WithRecorder(journal))
	dash := internal.NewDashboard(fixedProvider{}, l, nil, internal.WithBroadcaster(b))
	require.True(t, dash.Refresh(context.Background()))

	s := NewServer(":0", dash, journal, b, nil)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, journal: journal, b: b}
}

func (f *fixture) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(f.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestServer_Snapshot(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/api/snapshot?max_points=4")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap events.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "BTC_USD", snap.Pair)
	assert.Len(t, snap.Points, 4)
	assert.Equal(t, 12, snap.TotalPoints)
	require.NotNil(t, snap.Price)
	assert.True(t, snap.Price.Equal(decimal.NewFromInt(30100)))
	assert.Equal(t, "$30,100.00", snap.PriceText)

	bad, err := http.Get(f.srv.URL + "/api/snapshot?max_points=-1")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestServer_TradeFlow(t *testing.T) {
	f := newFixture(t)

	resp, out := f.post(t, "/api/buy", `{"asset_amount":"0.1","quote_amount":"3000","price":"30000"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["ok"])

	resp, out = f.post(t, "/api/sell", `{"asset_amount":"0.2","quote_amount":"6000"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, false, out["ok"])
	assert.Contains(t, out["reason"], "Insufficient BTC balance")

	resp, out = f.post(t, "/api/buy", `{"asset_amount":"-1","quote_amount":"10"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Please enter a valid amount.", out["reason"])

	resp, _ = f.post(t, "/api/buy", `{"bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	tr, err := http.Get(f.srv.URL + "/api/trades")
	require.NoError(t, err)
	defer tr.Body.Close()
	var rows []domain.TradeRow
	require.NoError(t, json.NewDecoder(tr.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "+0.10000000 BTC", rows[0].Asset)
	assert.Equal(t, "-$3,000.00", rows[0].Quote)
}

func TestServer_NonNumericTradeInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{name: "asset", body: `{"asset_amount":"abc","quote_amount":"10","price":"30000"}`, reason: "Please enter a valid amount."},
		{name: "quote", body: `{"asset_amount":"0.1","quote_amount":"1,000"}`, reason: "Please enter a valid amount."},
		{name: "bare word", body: `{"asset_amount":true,"quote_amount":"10"}`, reason: "Please enter a valid amount."},
		{name: "price", body: `{"asset_amount":"0.1","quote_amount":"10","price":"soon"}`, reason: "Please enter a valid price."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := f.post(t, "/api/buy", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			assert.Equal(t, false, out["ok"])
			assert.Equal(t, tt.reason, out["reason"])
		})
	}

	// numbers are accepted unquoted too
	resp, out := f.post(t, "/api/buy", `{"asset_amount":0.1,"quote_amount":3000,"price":30000}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["ok"])

	resp, out = f.post(t, "/api/quote", `{"action":"buy","amount":"lots","unit":"quote"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Please enter a valid amount.", out["reason"])
}

func TestServer_Quote(t *testing.T) {
	f := newFixture(t)

	resp, out := f.post(t, "/api/quote", `{"action":"buy","amount":"301","unit":"quote"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0.01", out["asset_amount"])

	resp, _ = f.post(t, "/api/quote", `{"action":"buy","amount":"1","unit":"lots"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out = f.post(t, "/api/quote", `{"action":"sell","amount":"0","unit":"asset"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.NotEmpty(t, out["reason"])
}

func readEvent(t *testing.T, r *bufio.Reader) (id, event, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" {
				return id, event, data
			}
		case strings.HasPrefix(line, "id: "):
			id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestServer_TradeStream(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/trades/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	_, event, _ := readEvent(t, bufio.NewReader(resp.Body))
	assert.Equal(t, "no_data", event)

	f.post(t, "/api/buy", `{"asset_amount":"0.1","quote_amount":"3000"}`)
	f.post(t, "/api/buy", `{"asset_amount":"0.1","quote_amount":"3000"}`)

	records, err := f.journal.TradesAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// resume after the first trade
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/trades/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", "2")
	resumed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resumed.Body.Close()

	id, event, data := readEvent(t, bufio.NewReader(resumed.Body))
	assert.Equal(t, "trade", event)
	assert.Equal(t, "3", id)
	assert.Contains(t, data, records[1].Trade.ID)
}

func TestServer_Websocket(t *testing.T) {
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first events.Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "BTC_USD", first.Pair)
	assert.Empty(t, first.Trades)

	require.Eventually(t, func() bool { return f.b.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	f.post(t, "/api/buy", `{"asset_amount":"0.1","quote_amount":"3000"}`)

	var next events.Snapshot
	require.NoError(t, conn.ReadJSON(&next))
	assert.Len(t, next.Trades, 1)
}

func TestServer_Static(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")

	// a custom transport keeps the body compressed
	resp, err := (&http.Transport{DisableCompression: true}).RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
}

func TestServer_StreamsUnavailable(t *testing.T) {
	s := NewServer(":0", nil, nil, nil, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	for _, p := range []string{"/trades/stream", "/ws"} {
		resp, err := http.Get(srv.URL + p)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, p)
	}
}

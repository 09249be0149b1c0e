package internal

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/internal/events"
	"github.com/vadiminshakov/paperdash/internal/services/chart"
	"github.com/vadiminshakov/paperdash/internal/services/ledger"
	"github.com/vadiminshakov/paperdash/internal/services/series"
)

const defaultRefreshInterval = 10 * time.Second

// MarketDataProvider returns a price series for a pair. It never fails,
// upstream problems are absorbed into a synthetic series.
type MarketDataProvider interface {
	Fetch(ctx context.Context, pair domain.Pair) domain.PriceSeries
}

// TradeRequest is a buy or sell command from the trade form. A zero Price
// means "at the latest series price".
type TradeRequest struct {
	AssetAmount decimal.Decimal `json:"asset_amount"`
	QuoteAmount decimal.Decimal `json:"quote_amount"`
	Price       decimal.Decimal `json:"price"`
}

// TradeResult is the outcome of a trade command. Reason is ready for display.
type TradeResult struct {
	Trade  *domain.Trade `json:"trade,omitempty"`
	OK     bool          `json:"ok"`
	Reason string        `json:"reason,omitempty"`
	Err    error         `json:"-"`
}

// ChartSettings controls the derived parts of a snapshot.
type ChartSettings struct {
	Labels    int
	EMAPeriod int
	RSIPeriod int
	// MaxPoints is the downsampling limit for published snapshots.
	MaxPoints int
}

// DashboardOption configures a Dashboard.
type DashboardOption func(*Dashboard)

// WithBroadcaster publishes a snapshot after every state change.
func WithBroadcaster(b *events.SnapshotBroadcaster) DashboardOption {
	return func(d *Dashboard) {
		d.broadcaster = b
	}
}

// WithRefreshInterval sets the period between series refreshes.
func WithRefreshInterval(interval time.Duration) DashboardOption {
	return func(d *Dashboard) {
		if interval > 0 {
			d.refreshInterval = interval
		}
	}
}

// WithChartSettings overrides the snapshot chart settings.
func WithChartSettings(s ChartSettings) DashboardOption {
	return func(d *Dashboard) {
		d.chart = s
	}
}

// Dashboard is the single owner of the price series store and the trade ledger.
type Dashboard struct {
	pair     domain.Pair
	provider MarketDataProvider
	store    *series.Store
	ledger   *ledger.Ledger

	broadcaster     *events.SnapshotBroadcaster
	refreshInterval time.Duration
	chart           ChartSettings
	logger          *zap.Logger

	inflight sync.WaitGroup
	now      func() time.Time
}

// NewDashboard wires a dashboard around an existing ledger.
func NewDashboard(provider MarketDataProvider, l *ledger.Ledger, logger *zap.Logger, opts ...DashboardOption) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dashboard{
		pair:            l.Pair(),
		provider:        provider,
		store:           series.NewStore(logger),
		ledger:          l,
		refreshInterval: defaultRefreshInterval,
		chart:           ChartSettings{Labels: 5, EMAPeriod: 12, RSIPeriod: 14, MaxPoints: 8},
		logger:          logger,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Pair returns the instrument.
func (d *Dashboard) Pair() domain.Pair {
	return d.pair
}

// Ledger exposes the trade ledger for read-only consumers.
func (d *Dashboard) Ledger() *ledger.Ledger {
	return d.ledger
}

// Run refreshes the series immediately and then on every tick until ctx is
// done. Each refresh runs in its own goroutine; Run waits for all of them
// before returning.
func (d *Dashboard) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.refreshInterval)
	defer ticker.Stop()
	defer d.inflight.Wait()

	d.logger.Info("Starting refresh loop",
		zap.String("pair", d.pair.String()),
		zap.Duration("interval", d.refreshInterval))

	d.refreshAsync(ctx)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Context done, stopping refresh loop.", zap.String("pair", d.pair.String()))
			return nil
		case <-ticker.C:
			d.refreshAsync(ctx)
		}
	}
}

func (d *Dashboard) refreshAsync(ctx context.Context) {
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.Refresh(ctx)
	}()
}

// Refresh fetches a series and installs it unless a newer one got there
// first. It reports whether the series was installed.
func (d *Dashboard) Refresh(ctx context.Context) bool {
	s := d.provider.Fetch(ctx, d.pair)

	applied, err := d.store.Replace(s)
	if err != nil {
		d.logger.Error("rejected price series", zap.String("source", s.Source), zap.Error(err))
		return false
	}
	if !applied {
		return false
	}

	d.logger.Debug("price series updated",
		zap.String("source", s.Source),
		zap.String("provenance", string(s.Provenance)),
		zap.Int("points", s.Len()))
	d.publish()
	return true
}

// Trades returns the trade history newest first.
func (d *Dashboard) Trades() []domain.TradeRow {
	return d.ledger.Rows()
}

// Series returns a copy of the current series.
func (d *Dashboard) Series() domain.PriceSeries {
	return d.store.Series()
}

// LatestPrice returns the price of the newest point.
func (d *Dashboard) LatestPrice() (decimal.Decimal, bool) {
	p, ok := d.store.Latest()
	if !ok {
		return decimal.Zero, false
	}
	return p.Price, true
}

// Quote converts a trade-form amount at the latest price.
func (d *Dashboard) Quote(action domain.Action, amount decimal.Decimal, unit domain.Unit) (domain.Quote, error) {
	price, _ := d.LatestPrice()
	return d.ledger.Quote(action, amount, unit, price)
}

// Buy executes a simulated buy.
func (d *Dashboard) Buy(ctx context.Context, req TradeRequest) TradeResult {
	return d.execute(ctx, domain.ActionBuy, req)
}

// Sell executes a simulated sell.
func (d *Dashboard) Sell(ctx context.Context, req TradeRequest) TradeResult {
	return d.execute(ctx, domain.ActionSell, req)
}

func (d *Dashboard) execute(ctx context.Context, action domain.Action, req TradeRequest) TradeResult {
	if err := ctx.Err(); err != nil {
		return TradeResult{Reason: "Request cancelled.", Err: err}
	}

	price := req.Price
	if price.IsZero() {
		// the ledger rejects a zero price when there is no series yet
		price, _ = d.LatestPrice()
	}

	trade, err := d.ledger.Execute(action, req.AssetAmount, req.QuoteAmount, price)
	if err != nil {
		d.logger.Info("trade rejected",
			zap.String("action", action.String()),
			zap.String("asset", req.AssetAmount.String()),
			zap.String("quote", req.QuoteAmount.String()),
			zap.String("price", price.String()),
			zap.Error(err))
		return TradeResult{Reason: domain.ReasonOf(err), Err: err}
	}

	d.publish()
	return TradeResult{Trade: &trade, OK: true}
}

// Reset clears the ledger and starts again from the given balances.
// The ledger is reset even when journaling fails.
func (d *Dashboard) Reset(asset, quote decimal.Decimal) error {
	err := d.ledger.Reset(asset, quote)
	d.publish()
	return err
}

// Snapshot builds the read model. maxPoints limits the chart points,
// zero or less returns the full series.
func (d *Dashboard) Snapshot(maxPoints int) events.Snapshot {
	s := d.store.Series()
	wallet := d.ledger.Wallet()
	display := chart.Collapse(s.Points)

	snap := events.Snapshot{
		Timestamp:   d.now(),
		Pair:        d.pair.String(),
		Provenance:  s.Provenance,
		Source:      s.Source,
		Points:      chart.Downsample(display, maxPoints),
		TotalPoints: s.Len(),
		Bounds:      chart.BoundsOf(display),
		Wallet:      wallet,
		Trades:      d.ledger.Rows(),
	}

	for _, label := range chart.PriceLabels(snap.Bounds, d.chart.Labels) {
		snap.Labels = append(snap.Labels, domain.FormatQuote(label, d.pair.To))
	}

	price, havePrice := d.LatestPrice()
	if havePrice {
		snap.Price = &price
		snap.PriceText = domain.FormatQuote(price, d.pair.To)
		snap.WalletValue = domain.FormatQuote(wallet.Value(price), d.pair.To)
	}
	if ex, ok := domain.ExtremesOf(s.Points); ok {
		snap.Extremes = &ex
	}
	if change, ok := chart.PeriodChange(s.Points); ok {
		snap.Change = &change
	}
	if ema, ok := chart.EMA(display, d.chart.EMAPeriod); ok {
		snap.EMA = chart.Downsample(ema, maxPoints)
	}
	if macd, ok := chart.MACD(display); ok {
		snap.MACD = chart.Downsample(macd, maxPoints)
	}
	if rsi, ok := chart.RSI(s.Points, d.chart.RSIPeriod); ok {
		snap.RSI = &rsi
	}
	if stats, ok := d.ledger.PortfolioStats(price, havePrice); ok {
		snap.Stats = &stats
	}

	return snap
}

func (d *Dashboard) publish() {
	if d.broadcaster == nil {
		return
	}
	d.broadcaster.Publish(d.Snapshot(d.chart.MaxPoints))
}

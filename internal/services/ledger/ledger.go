// Package ledger implements the simulated trade ledger and its cost-basis accounting.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"go.uber.org/zap"
)

// Recorder receives every trade after it has been appended, and every
// ledger restart so that trades can be attributed to their genesis.
// Both calls are made while the ledger lock is held.
type Recorder interface {
	Begin(pair domain.Pair, genesis domain.WalletState) error
	Record(trade domain.Trade) error
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithRecorder attaches an audit recorder, e.g. the trade journal.
func WithRecorder(r Recorder) Option {
	return func(l *Ledger) {
		l.recorder = r
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger is an append-only list of trades plus the wallet it produces.
// Trades are only created by Execute and are never mutated or removed.
type Ledger struct {
	mu       sync.RWMutex
	pair     domain.Pair
	genesis  domain.WalletState
	wallet   domain.WalletState
	trades   []domain.Trade
	recorder Recorder
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a ledger starting from the genesis balances.
func New(pair domain.Pair, genesis domain.WalletState, logger *zap.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		pair:    pair,
		genesis: genesis,
		wallet:  genesis,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(l)
	}

	logger.Info("ledger init",
		zap.String("pair", pair.String()),
		zap.String("asset", genesis.Asset.String()),
		zap.String("quote", genesis.Quote.String()))
	return l
}

// Pair returns the instrument the ledger trades.
func (l *Ledger) Pair() domain.Pair {
	return l.pair
}

// Quote converts a trade-form input into both amounts at currentPrice.
// The asset side is rounded to 8 places and the quote side to 2.
func (l *Ledger) Quote(action domain.Action, amount decimal.Decimal, unit domain.Unit, currentPrice decimal.Decimal) (domain.Quote, error) {
	if !currentPrice.IsPositive() {
		return domain.Quote{}, l.invalidPrice(currentPrice)
	}
	if !amount.IsPositive() {
		return domain.Quote{}, invalidAmount()
	}

	var q domain.Quote
	switch unit {
	case domain.UnitAsset:
		q.AssetAmount = amount.Round(domain.AssetPlaces)
		q.QuoteAmount = amount.Mul(currentPrice).Round(domain.QuotePlaces)
	case domain.UnitQuote:
		q.QuoteAmount = amount.Round(domain.QuotePlaces)
		q.AssetAmount = amount.Div(currentPrice).Round(domain.AssetPlaces)
	default:
		return domain.Quote{}, errors.Errorf("unknown quote unit %d", int(unit))
	}

	// input too small to survive rounding
	if !q.AssetAmount.IsPositive() || !q.QuoteAmount.IsPositive() {
		return domain.Quote{}, invalidAmount()
	}

	l.logger.Debug("Quoted trade",
		zap.String("action", action.String()),
		zap.String("asset", q.AssetAmount.String()),
		zap.String("quote", q.QuoteAmount.String()),
		zap.String("price", currentPrice.String()))
	return q, nil
}

// Execute validates and records a trade. On any failure the wallet and the
// trade list stay exactly as they were.
func (l *Ledger) Execute(action domain.Action, assetAmount, quoteAmount, currentPrice decimal.Decimal) (domain.Trade, error) {
	if !currentPrice.IsPositive() {
		return domain.Trade{}, l.invalidPrice(currentPrice)
	}
	if !assetAmount.IsPositive() {
		return domain.Trade{}, invalidAmount()
	}
	if !quoteAmount.IsPositive() {
		return domain.Trade{}, invalidAmount()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch action {
	case domain.ActionBuy:
		if quoteAmount.GreaterThan(l.wallet.Quote) {
			return domain.Trade{}, domain.NewTradeError(domain.ErrInsufficientQuote, fmt.Sprintf(
				"Insufficient %s balance: have %s, need %s", l.pair.To,
				domain.FormatQuote(l.wallet.Quote, l.pair.To), domain.FormatQuote(quoteAmount, l.pair.To)))
		}
	case domain.ActionSell:
		if assetAmount.GreaterThan(l.wallet.Asset) {
			return domain.Trade{}, domain.NewTradeError(domain.ErrInsufficientAsset, fmt.Sprintf(
				"Insufficient %s balance: have %s, need %s", l.pair.From,
				domain.FormatAsset(l.wallet.Asset, l.pair.From), domain.FormatAsset(assetAmount, l.pair.From)))
		}
	default:
		return domain.Trade{}, errors.Errorf("unknown action %d", int(action))
	}

	trade, err := domain.NewTrade(uuid.NewString(), action, assetAmount, quoteAmount, currentPrice, l.now())
	if err != nil {
		return domain.Trade{}, errors.Wrap(err, "build trade")
	}

	l.wallet = l.wallet.Apply(trade)
	l.trades = append(l.trades, trade)

	l.logger.Info("Simulated trade executed",
		zap.String("id", trade.ID),
		zap.String("action", action.String()),
		zap.String("asset", assetAmount.String()),
		zap.String("quote", quoteAmount.String()),
		zap.String("price", currentPrice.String()),
		zap.String("asset_balance", l.wallet.Asset.String()),
		zap.String("quote_balance", l.wallet.Quote.String()))

	if l.recorder != nil {
		if err := l.recorder.Record(trade); err != nil {
			l.logger.Error("failed to record trade", zap.String("id", trade.ID), zap.Error(err))
		}
	}

	return trade, nil
}

// Wallet returns the incrementally maintained balances.
func (l *Ledger) Wallet() domain.WalletState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.wallet
}

// Genesis returns the balances the ledger started from.
func (l *Ledger) Genesis() domain.WalletState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.genesis
}

// Trades returns a copy of the trade list in execution order.
func (l *Ledger) Trades() []domain.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.Trade(nil), l.trades...)
}

// Len returns the number of trades.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades)
}

// Rows returns the trade history newest first with signed amounts.
func (l *Ledger) Rows() []domain.TradeRow {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows := make([]domain.TradeRow, 0, len(l.trades))
	for i := len(l.trades) - 1; i >= 0; i-- {
		rows = append(rows, l.trades[i].Row(l.pair))
	}
	return rows
}

// Reset drops all trades and sets the wallet to the given balances.
// The ledger is reset even when the recorder fails; the error is returned.
func (l *Ledger) Reset(genesisAsset, genesisQuote decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.genesis = domain.WalletState{Asset: genesisAsset, Quote: genesisQuote}
	l.wallet = l.genesis
	l.trades = nil

	l.logger.Info("ledger reset",
		zap.String("asset", genesisAsset.String()),
		zap.String("quote", genesisQuote.String()))

	if l.recorder == nil {
		return nil
	}
	if err := l.recorder.Begin(l.pair, l.genesis); err != nil {
		l.logger.Error("failed to record ledger reset", zap.Error(err))
		return errors.Wrap(err, "record ledger reset")
	}
	return nil
}

// Replay rebuilds a wallet from genesis by applying trades in order.
func Replay(genesis domain.WalletState, trades []domain.Trade) domain.WalletState {
	w := genesis
	for _, t := range trades {
		w = w.Apply(t)
	}
	return w
}

func (l *Ledger) invalidPrice(price decimal.Decimal) error {
	return domain.NewTradeError(domain.ErrInvalidPrice,
		fmt.Sprintf("Invalid %s price: %s", l.pair.String(), price.String()))
}

func invalidAmount() error {
	return domain.NewTradeError(domain.ErrInvalidAmount, "Please enter a valid amount.")
}

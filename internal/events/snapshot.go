package events

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"github.com/vadiminshakov/paperdash/internal/services/chart"
)

// Snapshot is the dashboard read model pushed to UI subscribers.
// Optional parts are nil until there is data for them.
type Snapshot struct {
	Timestamp   time.Time              `json:"ts"`
	Pair        string                 `json:"pair"`
	Provenance  domain.Provenance      `json:"provenance,omitempty"`
	Source      string                 `json:"source,omitempty"`
	Points      []domain.PricePoint    `json:"points"`
	TotalPoints int                    `json:"total_points"`
	Price       *decimal.Decimal       `json:"price,omitempty"`
	PriceText   string                 `json:"price_text,omitempty"`
	Extremes    *domain.Extremes       `json:"extremes,omitempty"`
	Bounds      chart.Bounds           `json:"bounds"`
	Labels      []string               `json:"labels,omitempty"`
	Change      *chart.Change          `json:"change,omitempty"`
	EMA         []domain.PricePoint    `json:"ema,omitempty"`
	MACD        []domain.PricePoint    `json:"macd,omitempty"`
	RSI         *decimal.Decimal       `json:"rsi,omitempty"`
	Wallet      domain.WalletState     `json:"wallet"`
	WalletValue string                 `json:"wallet_value,omitempty"`
	Stats       *domain.PortfolioStats `json:"stats,omitempty"`
	Trades      []domain.TradeRow      `json:"trades"`
}

// SnapshotBroadcaster fans out snapshots to all subscribers via buffered channels.
type SnapshotBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan Snapshot]struct{}
	buffer int
}

// NewSnapshotBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewSnapshotBroadcaster(buffer int) *SnapshotBroadcaster {
	if buffer < 1 {
		buffer = 16
	}
	return &SnapshotBroadcaster{
		subs:   make(map[chan Snapshot]struct{}),
		buffer: buffer,
	}
}

// Publish sends the snapshot to all subscribers, dropping if a reader is slow.
func (b *SnapshotBroadcaster) Publish(s Snapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- s:
		default:
			// drop slow consumer
		}
	}
}

// Subscribe returns a channel that receives snapshots until Unsubscribe is called.
func (b *SnapshotBroadcaster) Subscribe() chan Snapshot {
	ch := make(chan Snapshot, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *SnapshotBroadcaster) Unsubscribe(ch chan Snapshot) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers returns the number of active subscribers.
func (b *SnapshotBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Package series holds the current price series of the dashboard.
package series

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"go.uber.org/zap"
)

// Store keeps the latest accepted price series. Replace swaps the whole
// series at once, readers never observe a partially updated one.
type Store struct {
	mu     sync.RWMutex
	series domain.PriceSeries
	loaded bool
	logger *zap.Logger
}

// NewStore creates an empty store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// Replace installs s as the current series. It rejects invalid input and
// leaves the prior series untouched. A series whose Origin predates the
// current one is discarded and reported as false with no error.
func (st *Store) Replace(s domain.PriceSeries) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, errors.Wrap(err, "replace price series")
	}

	next := s.Clone()

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.loaded && next.Origin.Before(st.series.Origin) {
		st.logger.Debug("Discarding stale price series",
			zap.Time("origin", next.Origin),
			zap.Time("current_origin", st.series.Origin),
			zap.String("source", next.Source))
		return false, nil
	}

	st.series = next
	st.loaded = true
	return true, nil
}

// Latest returns the most recent point.
func (st *Store) Latest() (domain.PricePoint, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if len(st.series.Points) == 0 {
		return domain.PricePoint{}, false
	}
	return st.series.Points[len(st.series.Points)-1], true
}

// Extremes returns the min and max price of the current series.
func (st *Store) Extremes() (domain.Extremes, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return domain.ExtremesOf(st.series.Points)
}

// At returns the point offset positions before the latest one; At(0) equals Latest.
func (st *Store) At(offsetFromEnd int) (domain.PricePoint, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	idx := len(st.series.Points) - 1 - offsetFromEnd
	if offsetFromEnd < 0 || idx < 0 {
		return domain.PricePoint{}, false
	}
	return st.series.Points[idx], true
}

// Series returns a copy of the current series. It is empty before the first Replace.
func (st *Store) Series() domain.PriceSeries {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return st.series.Clone()
}

// Len returns the number of points held.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return len(st.series.Points)
}

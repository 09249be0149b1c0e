package domain

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Provenance tells whether a series came from an upstream or was synthesized.
type Provenance string

const (
	ProvenanceSynthetic Provenance = "synthetic"
	ProvenanceLive      Provenance = "live"
)

// PricePoint is a single observation. Time has millisecond precision.
type PricePoint struct {
	Time  time.Time
	Price decimal.Decimal
}

type pricePointJSON struct {
	Time  int64           `json:"time"`
	Price decimal.Decimal `json:"price"`
}

// MarshalJSON encodes the time as epoch milliseconds.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(pricePointJSON{Time: p.Time.UnixMilli(), Price: p.Price})
}

// UnmarshalJSON decodes a point written by MarshalJSON.
func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var raw pricePointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Time = time.UnixMilli(raw.Time)
	p.Price = raw.Price
	return nil
}

// PriceSeries is an ordered list of points plus where it came from.
type PriceSeries struct {
	Points     []PricePoint `json:"points"`
	Provenance Provenance   `json:"provenance"`
	// Source names the upstream or generator, e.g. coincap, binance, synthetic.
	Source string `json:"source"`
	// Origin is when the fetch producing this series started.
	Origin time.Time `json:"origin"`
}

// Len returns the number of points.
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Validate checks the series is non-empty, time-ordered and strictly positive.
func (s PriceSeries) Validate() error {
	if len(s.Points) == 0 {
		return errors.New("price series is empty")
	}
	for i, p := range s.Points {
		if !p.Price.IsPositive() {
			return errors.Wrapf(ErrInvalidPrice, "point %d has price %s", i, p.Price)
		}
		if i > 0 && p.Time.Before(s.Points[i-1].Time) {
			return errors.Errorf("point %d at %s precedes point %d", i, p.Time.Format(time.RFC3339), i-1)
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot alias the stored slice.
func (s PriceSeries) Clone() PriceSeries {
	out := s
	out.Points = append([]PricePoint(nil), s.Points...)
	return out
}

// Prices returns the price column.
func (s PriceSeries) Prices() []decimal.Decimal {
	prices := make([]decimal.Decimal, len(s.Points))
	for i, p := range s.Points {
		prices[i] = p.Price
	}
	return prices
}

// Extremes are the min and max prices of a series.
type Extremes struct {
	Lowest  decimal.Decimal `json:"lowest"`
	Highest decimal.Decimal `json:"highest"`
}

// ExtremesOf scans points for min and max. ok is false for an empty slice.
func ExtremesOf(points []PricePoint) (Extremes, bool) {
	if len(points) == 0 {
		return Extremes{}, false
	}
	ex := Extremes{Lowest: points[0].Price, Highest: points[0].Price}
	for _, p := range points[1:] {
		if p.Price.LessThan(ex.Lowest) {
			ex.Lowest = p.Price
		}
		if p.Price.GreaterThan(ex.Highest) {
			ex.Highest = p.Price
		}
	}
	return ex, true
}

package pricer

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal/domain"
)

const (
	DefaultSamples        = 96
	DefaultSampleInterval = 15 * time.Minute

	syntheticSource = "synthetic"
)

// wave is one sinusoidal component: amplitude as a fraction of the base
// price, cycles over the whole window and phase in radians.
type wave struct {
	amplitude float64
	cycles    float64
	phase     float64
}

var syntheticWaves = []wave{
	{amplitude: 0.020, cycles: 1, phase: 0},
	{amplitude: 0.008, cycles: 3.5, phase: 1.3},
	{amplitude: 0.004, cycles: 9, phase: 2.1},
}

const (
	syntheticTrend  = 0.015  // total drift over the window, fraction of base
	syntheticJitter = 0.0025 // max absolute jitter, fraction of base
	syntheticFloor  = 0.01   // prices never drop below this fraction of base
)

// Synthetic generates a plausible series with a fixed shape and random noise.
type Synthetic struct {
	samples  int
	interval time.Duration
	base     float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSynthetic creates a generator. A nil rnd uses a time-seeded source.
func NewSynthetic(samples int, interval time.Duration, base decimal.Decimal, rnd *rand.Rand) *Synthetic {
	if samples < 2 {
		samples = DefaultSamples
	}
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b, _ := base.Float64()
	if b <= 0 {
		b = 60000
	}
	return &Synthetic{samples: samples, interval: interval, base: b, rnd: rnd}
}

// Generate builds samples points at a fixed interval ending at end.
func (g *Synthetic) Generate(end time.Time) domain.PriceSeries {
	end = end.Truncate(time.Millisecond)

	g.mu.Lock()
	jitter := make([]float64, g.samples)
	for i := range jitter {
		jitter[i] = (g.rnd.Float64()*2 - 1) * syntheticJitter
	}
	g.mu.Unlock()

	points := make([]domain.PricePoint, g.samples)
	last := float64(g.samples - 1)
	for i := 0; i < g.samples; i++ {
		x := float64(i) / last

		factor := 1 + syntheticTrend*x + jitter[i]
		for _, w := range syntheticWaves {
			factor += w.amplitude * math.Sin(2*math.Pi*w.cycles*x+w.phase)
		}
		if factor < syntheticFloor {
			factor = syntheticFloor
		}

		points[i] = domain.PricePoint{
			Time:  end.Add(-time.Duration(g.samples-1-i) * g.interval),
			Price: decimal.NewFromFloat(g.base * factor).Round(domain.QuotePlaces),
		}
	}

	return domain.PriceSeries{
		Points:     points,
		Provenance: domain.ProvenanceSynthetic,
		Source:     syntheticSource,
		Origin:     end,
	}
}

package vitals

import (
	"math"
	"math/rand"
	"time"

	"skanray-monitor/internal/models"
)

// Perturbation constants. One draw in ten leaves the configured range by
// up to spikeRange in either direction; without the spike branch a value
// can never go out of range and no alarm would ever fire.
const (
	spikeProbability = 0.10
	spikeRange       = 5.0
)

// Generator produces simulated readings from the configured reference
// ranges. It stands in for a real acquisition path: a production system
// would put hardware/transport input behind the same surface.
//
// The randomness source is injected so tests can drive exact sequences.
type Generator struct {
	thresholds *ThresholdTable
	rng        *rand.Rand
}

// NewGenerator creates a generator over the given threshold table.
func NewGenerator(thresholds *ThresholdTable, rng *rand.Rand) *Generator {
	return &Generator{
		thresholds: thresholds,
		rng:        rng,
	}
}

// Generate draws one value for the given vital sign: uniform in
// [min, max], spiked by an extra uniform offset in [-5, +5] on the 10%
// branch, rounded to one decimal place.
func (g *Generator) Generate(v models.VitalSign) float64 {
	r := g.thresholds.RangeFor(v)

	value := r.Min + g.rng.Float64()*(r.Max-r.Min)
	if g.rng.Float64() < spikeProbability {
		value += -spikeRange + g.rng.Float64()*(2*spikeRange)
	}

	return Round1(value)
}

// GenerateReading captures one value per vital sign. Readings are never
// partial.
func (g *Generator) GenerateReading(now time.Time) *models.Reading {
	values := make(map[models.VitalSign]float64, len(models.AllVitalSigns()))
	for _, v := range models.AllVitalSigns() {
		values[v] = g.Generate(v)
	}
	return &models.Reading{
		Values:     values,
		CapturedAt: now,
	}
}

// Round1 rounds to one decimal place, the precision carried end to end
// by readings and message observation values.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

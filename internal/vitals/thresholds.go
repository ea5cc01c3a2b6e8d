package vitals

import (
	"fmt"

	"skanray-monitor/internal/config"
	"skanray-monitor/internal/models"
)

// Range is the clinical reference range for one vital sign.
type Range struct {
	Min  float64
	Max  float64
	Unit string
}

// Midpoint returns the center of the range, used by severity grading.
func (r Range) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// ThresholdTable holds the reference ranges for every monitored vital
// sign. Fixed at startup; a missing entry is a configuration error and
// the service refuses to start.
type ThresholdTable struct {
	ranges map[models.VitalSign]Range
}

// NewThresholdTable builds the table from configuration, requiring an
// entry for every vital sign.
func NewThresholdTable(cfg *config.Config) (*ThresholdTable, error) {
	ranges := make(map[models.VitalSign]Range, len(models.AllVitalSigns()))

	for _, v := range models.AllVitalSigns() {
		rc, ok := cfg.Thresholds[v.String()]
		if !ok {
			return nil, fmt.Errorf("missing threshold configuration for vital sign: %s", v)
		}
		if rc.Min >= rc.Max {
			return nil, fmt.Errorf("invalid threshold range for %s: min %.1f >= max %.1f", v, rc.Min, rc.Max)
		}
		ranges[v] = Range{Min: rc.Min, Max: rc.Max, Unit: rc.Unit}
	}

	return &ThresholdTable{ranges: ranges}, nil
}

// RangeFor returns the reference range for the given vital sign. The
// table is validated at construction, so every vital sign resolves.
func (t *ThresholdTable) RangeFor(v models.VitalSign) Range {
	return t.ranges[v]
}

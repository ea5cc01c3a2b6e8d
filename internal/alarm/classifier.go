package alarm

import (
	"skanray-monitor/internal/models"
	"skanray-monitor/internal/vitals"
)

// criticalMargin grades an out-of-range value critical when its
// deviation from the range midpoint exceeds this margin.
const criticalMargin = 10.0

// Classifier evaluates readings against the threshold table. Pure and
// total: any finite reading classifies without error.
type Classifier struct {
	thresholds *vitals.ThresholdTable
}

// NewClassifier creates a classifier over the given threshold table.
func NewClassifier(thresholds *vitals.ThresholdTable) *Classifier {
	return &Classifier{thresholds: thresholds}
}

// Classify emits one alarm per out-of-range value in the reading.
// Alarms are emitted in vital sign enumeration order so output is
// deterministic. In-range values emit nothing.
func (c *Classifier) Classify(bedID int, reading *models.Reading) []models.Alarm {
	var alarms []models.Alarm

	for _, v := range models.AllVitalSigns() {
		value, ok := reading.Value(v)
		if !ok {
			continue
		}

		r := c.thresholds.RangeFor(v)
		if value >= r.Min && value <= r.Max {
			continue
		}

		severity := models.SeverityWarning
		deviation := value - r.Midpoint()
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation > criticalMargin {
			severity = models.SeverityCritical
		}

		alarms = append(alarms, models.Alarm{
			BedID:       bedID,
			Vital:       v,
			VitalName:   v.String(),
			Value:       value,
			Severity:    severity,
			TriggeredAt: reading.CapturedAt,
		})
	}

	return alarms
}

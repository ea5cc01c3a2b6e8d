package models

import (
	"time"
)

// Severity is the two-level alarm classification.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alarm is derived data: recomputed on every classification pass from a
// Reading and the threshold table, never merged with prior alarms.
// Acknowledgement bookkeeping belongs to the surrounding application;
// the Acknowledged flag only marks the alarm as acknowledgeable.
type Alarm struct {
	BedID        int       `json:"bed_id"`
	Vital        VitalSign `json:"-"`
	VitalName    string    `json:"vital"`
	Value        float64   `json:"value"`
	Severity     Severity  `json:"severity"`
	TriggeredAt  time.Time `json:"triggered_at"`
	Acknowledged bool      `json:"acknowledged"`
}

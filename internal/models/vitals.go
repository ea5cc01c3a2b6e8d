package models

import (
	"fmt"
	"time"
)

// VitalSign identifies one monitored physiological parameter.
type VitalSign int

const (
	HeartRate VitalSign = iota
	BloodPressure
	SpO2
	RespirationRate
	Temperature
)

// AllVitalSigns returns every vital sign in enumeration order.
// Classification and message encoding iterate in this order so their
// output is deterministic.
func AllVitalSigns() []VitalSign {
	return []VitalSign{HeartRate, BloodPressure, SpO2, RespirationRate, Temperature}
}

func (v VitalSign) String() string {
	switch v {
	case HeartRate:
		return "HeartRate"
	case BloodPressure:
		return "BloodPressure"
	case SpO2:
		return "SpO2"
	case RespirationRate:
		return "RespirationRate"
	case Temperature:
		return "Temperature"
	default:
		return "Unknown"
	}
}

// DisplayName returns the human-readable name used by the dashboard.
func (v VitalSign) DisplayName() string {
	switch v {
	case HeartRate:
		return "Heart Rate"
	case BloodPressure:
		return "Blood Pressure"
	case SpO2:
		return "SpO2"
	case RespirationRate:
		return "Respiration Rate"
	case Temperature:
		return "Temperature"
	default:
		return "Unknown"
	}
}

// MarshalText lets vital signs serve as readable JSON object keys.
func (v VitalSign) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (v *VitalSign) UnmarshalText(text []byte) error {
	parsed, ok := ParseVitalSign(string(text))
	if !ok {
		return fmt.Errorf("unknown vital sign: %s", text)
	}
	*v = parsed
	return nil
}

// ParseVitalSign maps a name produced by String() back to the enum.
func ParseVitalSign(s string) (VitalSign, bool) {
	for _, v := range AllVitalSigns() {
		if v.String() == s {
			return v, true
		}
	}
	return 0, false
}

// Reading is one simultaneous capture of all monitored vitals for a bed.
// A Reading always carries a value for every vital sign; it is never
// mutated after creation.
type Reading struct {
	Values     map[VitalSign]float64 `json:"values"`
	CapturedAt time.Time             `json:"captured_at"`
}

// Value returns the captured value for the given vital sign.
func (r *Reading) Value(v VitalSign) (float64, bool) {
	val, ok := r.Values[v]
	return val, ok
}

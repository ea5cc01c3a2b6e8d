package monitor

import (
	"fmt"
	"sync"
	"time"

	"skanray-monitor/internal/alarm"
	"skanray-monitor/internal/models"
	"skanray-monitor/internal/vitals"
)

// BedMonitor owns one bed's generation cadence state: the latest
// reading, the latest alarm list, a bounded trend buffer, the advisory
// connectivity flag and the last-sync timestamp. All mutation goes
// through its methods; readers and the scheduler may interleave freely.
type BedMonitor struct {
	mu sync.RWMutex

	bedID      int
	identity   models.PatientIdentity
	generator  *vitals.Generator
	classifier *alarm.Classifier

	latestReading *models.Reading
	latestAlarms  []models.Alarm
	trend         []*models.Reading
	trendCapacity int

	online   bool
	lastSync *time.Time
}

// Snapshot is a read-only copy of a bed's state for the dashboard and
// export layers.
type Snapshot struct {
	BedID         int                    `json:"bed_id"`
	Identity      models.PatientIdentity `json:"identity"`
	LatestReading *models.Reading        `json:"latest_reading"`
	LatestAlarms  []models.Alarm         `json:"latest_alarms"`
	Online        bool                   `json:"online"`
	LastSync      *time.Time             `json:"last_sync"`
}

func newBedMonitor(bedID, trendCapacity int, generator *vitals.Generator, classifier *alarm.Classifier) *BedMonitor {
	return &BedMonitor{
		bedID:         bedID,
		identity:      defaultIdentity(bedID),
		generator:     generator,
		classifier:    classifier,
		trendCapacity: trendCapacity,
		online:        true,
	}
}

// defaultIdentity builds the demographic stub used until admission data
// arrives from the surrounding application.
func defaultIdentity(bedID int) models.PatientIdentity {
	return models.PatientIdentity{
		PatientID: fmt.Sprintf("P%d", bedID),
		Name:      fmt.Sprintf("Patient_P%d", bedID),
		DOB:       "19700101",
		Gender:    "U",
	}
}

// BedID returns the bed identifier.
func (b *BedMonitor) BedID() int {
	return b.bedID
}

// Identity returns the subject identity used for message encoding.
func (b *BedMonitor) Identity() models.PatientIdentity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.identity
}

// SetIdentity replaces the subject identity (admission/import path).
func (b *BedMonitor) SetIdentity(identity models.PatientIdentity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.identity = identity
}

// Tick generates a fresh reading, classifies it, stores both as latest
// and appends the reading to the trend buffer (oldest evicted first).
// Offline beds still tick: the connectivity flag is advisory and
// callers decide whether to suppress delivery.
func (b *BedMonitor) Tick(now time.Time) (*models.Reading, []models.Alarm) {
	reading := b.generator.GenerateReading(now)
	alarms := b.classifier.Classify(b.bedID, reading)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.latestReading = reading
	b.latestAlarms = alarms

	b.trend = append(b.trend, reading)
	if len(b.trend) > b.trendCapacity {
		b.trend = b.trend[len(b.trend)-b.trendCapacity:]
	}

	return reading, alarms
}

// LatestReading returns the most recent reading, nil before the first
// tick.
func (b *BedMonitor) LatestReading() *models.Reading {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latestReading
}

// LatestAlarms returns the alarms from the most recent classification
// pass.
func (b *BedMonitor) LatestAlarms() []models.Alarm {
	b.mu.RLock()
	defer b.mu.RUnlock()

	alarms := make([]models.Alarm, len(b.latestAlarms))
	copy(alarms, b.latestAlarms)
	return alarms
}

// Trend returns a copy of the bounded trend buffer, oldest first.
func (b *BedMonitor) Trend() []*models.Reading {
	b.mu.RLock()
	defer b.mu.RUnlock()

	trend := make([]*models.Reading, len(b.trend))
	copy(trend, b.trend)
	return trend
}

// SetOnline toggles the advisory connectivity flag.
func (b *BedMonitor) SetOnline(online bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.online = online
}

// Online reports the advisory connectivity flag.
func (b *BedMonitor) Online() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.online
}

// Sync records the last synchronization time; no other effect.
func (b *BedMonitor) Sync(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSync = &now
}

// LastSync returns the last synchronization time, nil if never synced.
func (b *BedMonitor) LastSync() *time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastSync
}

// Snapshot copies the bed state for read-only consumers.
func (b *BedMonitor) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	alarms := make([]models.Alarm, len(b.latestAlarms))
	copy(alarms, b.latestAlarms)

	return Snapshot{
		BedID:         b.bedID,
		Identity:      b.identity,
		LatestReading: b.latestReading,
		LatestAlarms:  alarms,
		Online:        b.online,
		LastSync:      b.lastSync,
	}
}

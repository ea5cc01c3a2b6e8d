package monitor

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"skanray-monitor/internal/alarm"
	"skanray-monitor/internal/vitals"
)

// ErrUnknownBed is returned for bed ids outside the configured range.
// Unknown beds are never created implicitly.
var ErrUnknownBed = errors.New("unknown bed")

// Registry owns the fixed set of bed monitors and arbitrates concurrent
// access. Monitors are created lazily on first reference, at most once
// per bed id even under concurrent first access.
type Registry struct {
	mu sync.Mutex

	bedCount      int
	trendCapacity int
	generator     *vitals.Generator
	classifier    *alarm.Classifier
	logger        *zap.Logger

	monitors map[int]*BedMonitor
}

// NewRegistry creates the registry for bed ids 1..bedCount.
func NewRegistry(
	bedCount int,
	trendCapacity int,
	generator *vitals.Generator,
	classifier *alarm.Classifier,
	logger *zap.Logger,
) *Registry {
	return &Registry{
		bedCount:      bedCount,
		trendCapacity: trendCapacity,
		generator:     generator,
		classifier:    classifier,
		logger:        logger,
		monitors:      make(map[int]*BedMonitor, bedCount),
	}
}

// BedCount returns the configured number of beds.
func (r *Registry) BedCount() int {
	return r.bedCount
}

// Get returns the monitor for the given bed, creating it on first
// reference. Ids outside [1, bedCount] yield ErrUnknownBed.
func (r *Registry) Get(bedID int) (*BedMonitor, error) {
	if bedID < 1 || bedID > r.bedCount {
		return nil, fmt.Errorf("%w: %d (valid range 1..%d)", ErrUnknownBed, bedID, r.bedCount)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.monitors[bedID]; ok {
		return m, nil
	}

	m := newBedMonitor(bedID, r.trendCapacity, r.generator, r.classifier)
	r.monitors[bedID] = m

	r.logger.Info("Created bed monitor",
		zap.Int("bed_id", bedID),
	)

	return m, nil
}

// All returns every bed monitor in bed-id order, creating any that have
// not yet been referenced so the scheduler always drives the full set.
func (r *Registry) All() []*BedMonitor {
	monitors := make([]*BedMonitor, 0, r.bedCount)
	for bedID := 1; bedID <= r.bedCount; bedID++ {
		m, err := r.Get(bedID)
		if err != nil {
			continue
		}
		monitors = append(monitors, m)
	}
	return monitors
}

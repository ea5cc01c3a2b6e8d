package export

import (
	"bytes"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"skanray-monitor/internal/alarm"
	"skanray-monitor/internal/config"
	"skanray-monitor/internal/monitor"
	"skanray-monitor/internal/vitals"
)

func testBed(t *testing.T, ticks int) *monitor.BedMonitor {
	cfg, err := config.Load()
	require.NoError(t, err)
	table, err := vitals.NewThresholdTable(cfg)
	require.NoError(t, err)

	generator := vitals.NewGenerator(table, rand.New(rand.NewSource(7)))
	registry := monitor.NewRegistry(4, 60, generator, alarm.NewClassifier(table), zap.NewNop())

	m, err := registry.Get(2)
	require.NoError(t, err)
	now := time.Now()
	for i := 0; i < ticks; i++ {
		m.Tick(now.Add(time.Duration(i) * 5 * time.Second))
	}
	return m
}

func TestWriteTrendReport_BuildsWorkbook(t *testing.T) {
	w := NewTrendReportWriter(zap.NewNop())
	bed := testBed(t, 3)

	data, err := w.WriteTrendReport(bed)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.Contains(t, f.GetSheetList(), "Bed 2")

	rows, err := f.GetRows("Bed 2")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "Captured At", rows[0][0])
	assert.Equal(t, "Heart Rate", rows[0][1])
	assert.Equal(t, "Temperature", rows[0][5])

	// One data row per trend entry, every vital populated.
	for _, row := range rows[1:] {
		require.Len(t, row, 6)
		assert.NotEmpty(t, row[1])
	}
}

func TestWriteTrendReport_EmptyTrendIsHeaderOnly(t *testing.T) {
	w := NewTrendReportWriter(zap.NewNop())
	bed := testBed(t, 0)

	data, err := w.WriteTrendReport(bed)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bed 2")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

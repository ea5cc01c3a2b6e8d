package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"skanray-monitor/internal/models"
	"skanray-monitor/internal/monitor"
)

// TrendReportWriter renders a bed's trend buffer as a spreadsheet for
// the dashboard's download affordance.
type TrendReportWriter struct {
	logger *zap.Logger
}

// NewTrendReportWriter creates the report writer.
func NewTrendReportWriter(logger *zap.Logger) *TrendReportWriter {
	return &TrendReportWriter{logger: logger}
}

// WriteTrendReport builds an XLSX workbook with one row per reading in
// the trend buffer, one column per vital sign, oldest first.
func (w *TrendReportWriter) WriteTrendReport(bed *monitor.BedMonitor) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("Bed %d", bed.BedID())
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []string{"Captured At"}
	for _, v := range models.AllVitalSigns() {
		headers = append(headers, v.DisplayName())
	}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to set header cell: %w", err)
		}
	}

	for row, reading := range bed.Trend() {
		cells := []interface{}{reading.CapturedAt.Format("2006-01-02 15:04:05")}
		for _, v := range models.AllVitalSigns() {
			cells = append(cells, reading.Values[v])
		}
		for col, value := range cells {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set cell: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Debug("Built trend report",
		zap.Int("bed_id", bed.BedID()),
		zap.Int("row_count", len(bed.Trend())),
	)

	return buf.Bytes(), nil
}

package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"skanray-monitor/internal/export"
	"skanray-monitor/internal/hl7"
	"skanray-monitor/internal/monitor"
	"skanray-monitor/internal/repository"
)

// BedHandler serves the dashboard's read/command surface over the
// monitor registry plus the export affordances.
type BedHandler struct {
	registry     *monitor.Registry
	codec        *hl7.Codec
	reportWriter *export.TrendReportWriter
	// alarmHistory is nil when the service runs without a database.
	alarmHistory *repository.AlarmHistoryRepository
	logger       *zap.Logger
}

// NewBedHandler creates the handler. alarmHistory may be nil.
func NewBedHandler(
	registry *monitor.Registry,
	codec *hl7.Codec,
	reportWriter *export.TrendReportWriter,
	alarmHistory *repository.AlarmHistoryRepository,
	logger *zap.Logger,
) *BedHandler {
	return &BedHandler{
		registry:     registry,
		codec:        codec,
		reportWriter: reportWriter,
		alarmHistory: alarmHistory,
		logger:       logger,
	}
}

// bedView is the per-bed payload for the dashboard.
type bedView struct {
	monitor.Snapshot
	Trend []trendPoint `json:"trend,omitempty"`
}

type trendPoint struct {
	CapturedAt time.Time          `json:"captured_at"`
	Values     map[string]float64 `json:"values"`
}

// ListBeds returns snapshots of every bed in bed-id order.
func (h *BedHandler) ListBeds(w http.ResponseWriter, r *http.Request) {
	monitors := h.registry.All()

	snapshots := make([]monitor.Snapshot, 0, len(monitors))
	for _, m := range monitors {
		snapshots = append(snapshots, m.Snapshot())
	}

	writeJSON(w, http.StatusOK, Ok(snapshots))
}

// GetBed returns one bed's snapshot including its trend buffer.
func (h *BedHandler) GetBed(w http.ResponseWriter, r *http.Request, bedID int) {
	m, err := h.registry.Get(bedID)
	if err != nil {
		h.writeBedError(w, err)
		return
	}

	view := bedView{Snapshot: m.Snapshot()}
	for _, reading := range m.Trend() {
		values := make(map[string]float64, len(reading.Values))
		for v, val := range reading.Values {
			values[v.String()] = val
		}
		view.Trend = append(view.Trend, trendPoint{
			CapturedAt: reading.CapturedAt,
			Values:     values,
		})
	}

	writeJSON(w, http.StatusOK, Ok(view))
}

// SyncBed records the bed's last-sync timestamp.
func (h *BedHandler) SyncBed(w http.ResponseWriter, r *http.Request, bedID int) {
	m, err := h.registry.Get(bedID)
	if err != nil {
		h.writeBedError(w, err)
		return
	}

	now := time.Now()
	m.Sync(now)

	h.logger.Info("Bed synced",
		zap.Int("bed_id", bedID),
	)

	writeJSON(w, http.StatusOK, Ok(map[string]any{"last_sync": now}))
}

// SetConnectivity toggles the advisory online/offline flag.
func (h *BedHandler) SetConnectivity(w http.ResponseWriter, r *http.Request, bedID int) {
	m, err := h.registry.Get(bedID)
	if err != nil {
		h.writeBedError(w, err)
		return
	}

	var body struct {
		Online *bool `json:"online"`
	}
	if err := readBodyJSON(r, 1<<16, &body); err != nil || body.Online == nil {
		writeJSON(w, http.StatusBadRequest, Fail("body must be {\"online\": true|false}"))
		return
	}

	m.SetOnline(*body.Online)

	h.logger.Info("Bed connectivity changed",
		zap.Int("bed_id", bedID),
		zap.Bool("online", *body.Online),
	)

	writeJSON(w, http.StatusOK, Ok(map[string]any{"online": *body.Online}))
}

// ExportBed returns the bed's latest reading as an encoded clinical
// message (format=json, default) or as the lossy header-line textual
// form (format=hl7).
func (h *BedHandler) ExportBed(w http.ResponseWriter, r *http.Request, bedID int) {
	m, err := h.registry.Get(bedID)
	if err != nil {
		h.writeBedError(w, err)
		return
	}

	reading := m.LatestReading()
	if reading == nil {
		writeJSON(w, http.StatusConflict, Fail(fmt.Sprintf("bed %d has no reading yet", bedID)))
		return
	}

	msg := h.codec.Encode(bedID, m.Identity(), reading, time.Now())

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, Ok(msg))
	case "hl7":
		// Header-only textual form: lossy, not decodable.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(h.codec.HeaderLine(msg)))
	default:
		writeJSON(w, http.StatusBadRequest, Fail("format must be json or hl7"))
	}
}

// ExportTrendXLSX streams the bed's trend buffer as a spreadsheet.
func (h *BedHandler) ExportTrendXLSX(w http.ResponseWriter, r *http.Request, bedID int) {
	m, err := h.registry.Get(bedID)
	if err != nil {
		h.writeBedError(w, err)
		return
	}

	data, err := h.reportWriter.WriteTrendReport(m)
	if err != nil {
		h.logger.Error("Failed to build trend report",
			zap.Int("bed_id", bedID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to build trend report"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bed-%d-trend.xlsx"`, bedID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// RecentAlarms returns persisted alarm history for a bed, newest first.
func (h *BedHandler) RecentAlarms(w http.ResponseWriter, r *http.Request, bedID int) {
	if h.alarmHistory == nil {
		writeJSON(w, http.StatusNotImplemented, Fail("alarm history persistence is disabled"))
		return
	}

	if _, err := h.registry.Get(bedID); err != nil {
		h.writeBedError(w, err)
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 50)
	alarms, err := h.alarmHistory.ListRecentAlarms(context.Background(), bedID, limit)
	if err != nil {
		h.logger.Error("Failed to list alarm history",
			zap.Int("bed_id", bedID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list alarm history"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(alarms))
}

func (h *BedHandler) writeBedError(w http.ResponseWriter, err error) {
	if errors.Is(err, monitor.ErrUnknownBed) {
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
}

package httpapi

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"skanray-monitor/internal/alarm"
	"skanray-monitor/internal/config"
	"skanray-monitor/internal/exchange"
	"skanray-monitor/internal/export"
	"skanray-monitor/internal/hl7"
	"skanray-monitor/internal/models"
	"skanray-monitor/internal/monitor"
	"skanray-monitor/internal/vitals"
)

type testAPI struct {
	router   *Router
	registry *monitor.Registry
	codec    *hl7.Codec
	queue    *exchange.MessageQueue
}

func setupTestAPI(t *testing.T) *testAPI {
	cfg, err := config.Load()
	require.NoError(t, err)

	table, err := vitals.NewThresholdTable(cfg)
	require.NoError(t, err)

	logger := zap.NewNop()
	generator := vitals.NewGenerator(table, rand.New(rand.NewSource(42)))
	classifier := alarm.NewClassifier(table)
	registry := monitor.NewRegistry(cfg.Monitor.BedCount, cfg.Monitor.TrendCapacity, generator, classifier, logger)
	codec := hl7.NewCodec(table)
	queue := exchange.NewMessageQueue(codec, logger)

	router := NewRouter(logger)
	router.RegisterBedRoutes(NewBedHandler(registry, codec, export.NewTrendReportWriter(logger), nil, logger))
	router.RegisterExchangeRoutes(NewExchangeHandler(queue, logger))

	return &testAPI{router: router, registry: registry, codec: codec, queue: queue}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	var envelope struct {
		Code    int             `json:"code"`
		Type    string          `json:"type"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, ResultSuccess, envelope.Code, envelope.Message)
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Result, out))
	}
}

func TestListBeds_ReturnsAllBedsInOrder(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/beds", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var snapshots []monitor.Snapshot
	decodeResult(t, rec, &snapshots)

	require.Len(t, snapshots, 4)
	for i, s := range snapshots {
		assert.Equal(t, i+1, s.BedID)
		assert.True(t, s.Online)
	}
}

func TestGetBed_IncludesTrend(t *testing.T) {
	api := setupTestAPI(t)

	m, err := api.registry.Get(2)
	require.NoError(t, err)
	m.Tick(time.Now())
	m.Tick(time.Now().Add(5 * time.Second))

	rec := api.do(t, http.MethodGet, "/api/v1/beds/2", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		BedID int `json:"bed_id"`
		Trend []struct {
			Values map[string]float64 `json:"values"`
		} `json:"trend"`
	}
	decodeResult(t, rec, &view)

	assert.Equal(t, 2, view.BedID)
	require.Len(t, view.Trend, 2)
	assert.Contains(t, view.Trend[0].Values, "HeartRate")
	assert.Contains(t, view.Trend[0].Values, "Temperature")
}

func TestGetBed_UnknownBedIs404(t *testing.T) {
	api := setupTestAPI(t)

	for _, path := range []string{"/api/v1/beds/0", "/api/v1/beds/5", "/api/v1/beds/100"} {
		rec := api.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestGetBed_NonIntegerIDIs400(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/beds/abc", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncBed_RecordsTimestamp(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/beds/1/sync", "")

	require.Equal(t, http.StatusOK, rec.Code)

	m, err := api.registry.Get(1)
	require.NoError(t, err)
	require.NotNil(t, m.LastSync())
	assert.Nil(t, m.LatestReading())
}

func TestSetConnectivity_TogglesFlag(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(t, http.MethodPut, "/api/v1/beds/3/connectivity", `{"online": false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	m, err := api.registry.Get(3)
	require.NoError(t, err)
	assert.False(t, m.Online())

	rec = api.do(t, http.MethodPut, "/api/v1/beds/3/connectivity", `{"online": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, m.Online())
}

func TestSetConnectivity_MissingFieldIs400(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(t, http.MethodPut, "/api/v1/beds/3/connectivity", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportBed_NoReadingIs409(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/beds/1/export", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExportBed_JSONDecodesBack(t *testing.T) {
	api := setupTestAPI(t)

	m, err := api.registry.Get(3)
	require.NoError(t, err)
	m.Tick(time.Now())

	rec := api.do(t, http.MethodGet, "/api/v1/beds/3/export", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var msg models.ClinicalMessage
	decodeResult(t, rec, &msg)

	assert.Equal(t, "ORU^R01", msg.MSH.MessageType)
	assert.Equal(t, "P3", msg.PID.PatientID)
	require.Len(t, msg.OBX, 5)

	// The encoded message round-trips through the codec.
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	identity, reading, err := api.codec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "P3", identity.PatientID)
	assert.Len(t, reading.Values, 5)
}

func TestExportBed_HL7FormatIsHeaderLine(t *testing.T) {
	api := setupTestAPI(t)

	m, err := api.registry.Get(2)
	require.NoError(t, err)
	m.Tick(time.Now())

	rec := api.do(t, http.MethodGet, "/api/v1/beds/2/export?format=hl7", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.True(t, strings.HasPrefix(rec.Body.String(), `MSH|^~\&|SkanRay|HOSPITAL|`))
}

func TestExportBed_UnknownFormatIs400(t *testing.T) {
	api := setupTestAPI(t)

	m, err := api.registry.Get(2)
	require.NoError(t, err)
	m.Tick(time.Now())

	rec := api.do(t, http.MethodGet, "/api/v1/beds/2/export?format=xml", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportTrendXLSX_ReturnsWorkbook(t *testing.T) {
	api := setupTestAPI(t)

	m, err := api.registry.Get(1)
	require.NoError(t, err)
	m.Tick(time.Now())

	rec := api.do(t, http.MethodGet, "/api/v1/beds/1/export/xlsx", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bed-1-trend.xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestRecentAlarms_WithoutDatabaseIs501(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/beds/1/alarms/recent", "")

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestImportMessage_Enqueues(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/messages", `{"MSH":{}}`)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var msg models.QueuedMessage
	decodeResult(t, rec, &msg)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, models.StatusPending, msg.Status)
	assert.Equal(t, 1, api.queue.PendingCount())
}

func TestImportMessage_EmptyBodyIs400(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/messages", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessageFlow_ImportProcessList(t *testing.T) {
	api := setupTestAPI(t)

	// A valid message produced by the export path for bed 3.
	m, err := api.registry.Get(3)
	require.NoError(t, err)
	m.Tick(time.Now())
	msg := api.codec.Encode(3, m.Identity(), m.LatestReading(), time.Now())
	raw, err := api.codec.Marshal(msg)
	require.NoError(t, err)

	rec := api.do(t, http.MethodPost, "/api/v1/messages", string(raw))
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/messages", "garbage")
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/messages/process", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var processed []models.QueuedMessage
	decodeResult(t, rec, &processed)
	require.Len(t, processed, 1)
	assert.Equal(t, models.StatusProcessed, processed[0].Status)
	require.NotNil(t, processed[0].Parsed)
	assert.Equal(t, "P3", processed[0].Parsed.PID.PatientID)

	rec = api.do(t, http.MethodGet, "/api/v1/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var all []models.QueuedMessage
	decodeResult(t, rec, &all)
	require.Len(t, all, 2)
	assert.Equal(t, 1, api.queue.PendingCount())
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	api := setupTestAPI(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/v1/beds"},
		{http.MethodPost, "/api/v1/beds/1"},
		{http.MethodGet, "/api/v1/beds/1/sync"},
		{http.MethodPost, "/api/v1/beds/1/connectivity"},
		{http.MethodDelete, "/api/v1/messages"},
		{http.MethodGet, "/api/v1/messages/process"},
	}

	for _, c := range cases {
		rec := api.do(t, c.method, c.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", c.method, c.path)
	}
}

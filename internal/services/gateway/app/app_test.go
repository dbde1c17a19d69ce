package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ingestStub(t *testing.T, readings []SensorReading, alerts []Alert) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/data/latest", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(readings)
	})
	mux.HandleFunc("/alerts/recent", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(alerts)
	})
	return httptest.NewServer(mux)
}

func predictionStub(t *testing.T, loaded bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "running", "models_loaded": loaded})
	})
	return httptest.NewServer(mux)
}

func newGateway(ingestURL, predictionURL string) *Gateway {
	return NewGateway(Config{
		IngestBaseURL:     ingestURL,
		PredictionBaseURL: predictionURL,
		HTTPTimeout:       2 * time.Second,
		BreakerFailures:   2,
		BreakerOpenFor:    time.Minute,
	})
}

func dashboard(t *testing.T, gw *Gateway) DashboardData {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/data", nil)
	rec := httptest.NewRecorder()
	gw.Mux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out DashboardData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestDashboardAggregatesUpstreams(t *testing.T) {
	readings := []SensorReading{
		{StationID: "station-1", SensorID: "ws-02", Score: 60, Potability: "Not Potable", RiskLevel: "High"},
		{StationID: "station-1", SensorID: "ws-01", Score: 100, Potability: "Potable", RiskLevel: "Low"},
	}
	alerts := []Alert{{StationID: "station-1", SensorID: "ws-02", Score: 60, RiskLevel: "High", Time: "2026-08-23T10:00:00Z"}}

	ing := ingestStub(t, readings, alerts)
	defer ing.Close()
	pred := predictionStub(t, true)
	defer pred.Close()

	out := dashboard(t, newGateway(ing.URL, pred.URL))

	require.Len(t, out.Sensors, 2)
	// ordinati per station/sensor id
	assert.Equal(t, "ws-01", out.Sensors[0].SensorID)
	assert.Equal(t, "ws-02", out.Sensors[1].SensorID)

	require.Len(t, out.Alerts, 1)
	assert.Equal(t, 60.0, out.Alerts[0].Score)

	assert.True(t, out.Model.ModelsLoaded)
	assert.Equal(t, "running", out.Model.Status)

	assert.Equal(t, 80.0, out.Stats.Mean)
	assert.Equal(t, 60.0, out.Stats.Min)
	assert.Equal(t, 100.0, out.Stats.Max)
}

func TestDashboardServesLastGoodAlertsWhenUpstreamDown(t *testing.T) {
	alerts := []Alert{{SensorID: "ws-02", Score: 40, Time: "2026-08-23T10:00:00Z"}}
	ing := ingestStub(t, nil, alerts)
	pred := predictionStub(t, true)
	defer pred.Close()

	gw := newGateway(ing.URL, pred.URL)
	first := dashboard(t, gw)
	require.Len(t, first.Alerts, 1)

	ing.Close() // upstream giù

	second := dashboard(t, gw)
	require.Len(t, second.Alerts, 1)
	assert.Equal(t, 40.0, second.Alerts[0].Score)
	assert.Empty(t, second.Sensors)
}

func TestDashboardEmptyWhenNothingConfigured(t *testing.T) {
	out := dashboard(t, newGateway("", ""))
	assert.Empty(t, out.Sensors)
	assert.Empty(t, out.Alerts)
	assert.Equal(t, Stats{}, out.Stats)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	up := NewUpstream("test", bad.URL, "/data/latest", time.Second, 2, time.Minute)

	var out []SensorReading
	assert.Error(t, up.GetJSON(context.Background(), &out))
	assert.Error(t, up.GetJSON(context.Background(), &out))
	assert.Equal(t, gobreaker.StateOpen, up.State())

	// breaker aperto: la terza chiamata non tocca la rete
	assert.Error(t, up.GetJSON(context.Background(), &out))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestHealthz(t *testing.T) {
	gw := newGateway("", "")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	gw.Mux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

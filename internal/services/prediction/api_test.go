package prediction

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acquasense/potability/internal/artifacts"
	"github.com/acquasense/potability/internal/potability"
)

func newTestServer(t *testing.T) (*Server, *artifacts.Bundle) {
	t.Helper()
	dir := t.TempDir()
	a := &artifacts.Artifact{Name: "test", Version: "1.0", Weights: []float64{1}}
	require.NoError(t, artifacts.WriteArtifact(filepath.Join(dir, artifacts.ClassifierFile), a))
	require.NoError(t, artifacts.WriteArtifact(filepath.Join(dir, artifacts.RegressorFile), a))

	bundle, err := artifacts.Load(dir)
	require.NoError(t, err)
	return NewServer(bundle), bundle
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) potability.Result {
	t.Helper()
	var res potability.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestPredictGETDefaults(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/predict", "")

	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeResult(t, rec)
	assert.Equal(t, potability.VerdictPotable, res.PotabilityStatus)
	assert.Equal(t, 100.0, res.PotabilityScore)
	assert.Equal(t, 350.0, res.Parameters.TDS)
	assert.Equal(t, 0.8, res.Parameters.Turbidity)
	assert.NotEmpty(t, rec.Header().Get("X-Evaluation-ID"))
}

func TestPredictGETWithParams(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/predict?tds=600&turbidity=0.8", "")

	res := decodeResult(t, rec)
	assert.Equal(t, potability.VerdictNotPotable, res.PotabilityStatus)
	assert.Equal(t, 60.0, res.PotabilityScore)
	assert.False(t, res.WHOCompliance.TDSCompliant)
	assert.True(t, res.WHOCompliance.TurbidityCompliant)
}

func TestPredictGETMalformedParam(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/predict?tds=abc", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var e potability.ErrorResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, potability.StatusError, e.Status)
	assert.Contains(t, e.Message, "tds")
}

func TestPredictPOST(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("full body", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/predict",
			`{"tds_value": 350, "turbidity_value": 6, "temperature": 22, "ph_level": 7.2}`)
		res := decodeResult(t, rec)
		assert.Equal(t, potability.VerdictNotPotable, res.PotabilityStatus)
		assert.Equal(t, 60.0, res.PotabilityScore)
		assert.Contains(t, res.Recommendation, "Turbidity")
	})

	t.Run("missing fields take defaults", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/predict", `{"tds_value": 1300}`)
		res := decodeResult(t, rec)
		assert.Equal(t, 0.8, res.Parameters.Turbidity)
		assert.Equal(t, 25.0, res.Parameters.Temperature)
		// 1300 → -50, turbidity 0.8 conforme
		assert.Equal(t, 50.0, res.PotabilityScore)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/predict", `{"tds_value": `)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPredictMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodDelete, "/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPredictModelsNotLoaded(t *testing.T) {
	s, bundle := newTestServer(t)
	require.NoError(t, os.Remove(filepath.Join(bundle.Dir(), artifacts.ClassifierFile)))
	_ = bundle.Reload() // marca il bundle come non caricato

	rec := doRequest(t, s, http.MethodGet, "/predict", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var e potability.ErrorResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, potability.StatusError, e.Status)
	assert.Contains(t, e.Message, "not loaded")
}

func TestTestEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/test", "")

	res := decodeResult(t, rec)
	assert.Equal(t, potability.VerdictPotable, res.PotabilityStatus)
	assert.Equal(t, 100.0, res.PotabilityScore)
	assert.Equal(t, "None", res.ActionRequired)
}

func TestHomeBanner(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/", "")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Water Potability AI Server", body["message"])
	assert.Equal(t, true, body["models_loaded"])
	assert.Contains(t, body["endpoints"], "/predict")
}

func TestHomeUnknownPath(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusAndHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/status", "")
	var st map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "running", st["status"])
	assert.Equal(t, true, st["models_loaded"])
	assert.NotEmpty(t, st["go_version"])
	assert.NotEmpty(t, st["working_directory"])

	rec = doRequest(t, s, http.MethodGet, "/health", "")
	var h map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, "healthy", h["status"])
	assert.Equal(t, true, h["models_loaded"])
}

func TestMetricsExposed(t *testing.T) {
	s, _ := newTestServer(t)

	// genera qualche valutazione prima di leggere /metrics
	doRequest(t, s, http.MethodGet, "/predict", "")
	doRequest(t, s, http.MethodGet, "/predict?tds=900", "")

	rec := doRequest(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "potability_predictions_total")
	assert.Contains(t, rec.Body.String(), "potability_score")
}

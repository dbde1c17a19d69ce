package prediction

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acquasense/potability/internal/artifacts"
	"github.com/acquasense/potability/internal/potability"
)

// Default applicati quando un parametro manca dalla richiesta
// (stessi valori del sample storico: acqua di rete pulita).
const (
	defaultTDS         = 350.0
	defaultTurbidity   = 0.8
	defaultTemperature = 25.0
	defaultPH          = 7.0
)

// Server incapsula le dipendenze degli handler. Il bundle dei modelli è un
// valore esplicito passato dal main, non stato globale di processo.
type Server struct {
	bundle   *artifacts.Bundle
	metrics  *metrics
	registry *prometheus.Registry
}

func NewServer(bundle *artifacts.Bundle) *Server {
	reg := prometheus.NewRegistry()
	return &Server{
		bundle:   bundle,
		metrics:  newMetrics(reg),
		registry: reg,
	}
}

func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/test", s.handleTest)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Water Potability AI Server",
		"status":        "running",
		"models_loaded": s.bundle.Loaded(),
		"endpoints": map[string]string{
			"/predict": "GET/POST - Get potability recommendation",
			"/status":  "GET - Server status",
			"/health":  "GET - Health check",
			"/test":    "GET - Sample evaluation",
			"/metrics": "GET - Prometheus metrics",
		},
	})
}

// handlePredict: GET con query params (tds, turbidity, temperature, ph)
// oppure POST con body JSON (tds_value, turbidity_value, temperature,
// ph_level). I parametri mancanti prendono i default; quelli malformati
// sono un errore del client, non arrivano mai al rule engine.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var (
		tds, turb, temp, ph float64
		err                 error
	)

	switch r.Method {
	case http.MethodGet:
		tds, turb, temp, ph, err = paramsFromQuery(r.URL.Query())
	case http.MethodPost:
		tds, turb, temp, ph, err = paramsFromBody(r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, potability.ErrorResult{
			Status: potability.StatusError, Message: "method not allowed",
		})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, potability.ErrorResult{
			Status: potability.StatusError, Message: err.Error(),
		})
		return
	}

	s.evaluate(w, tds, turb, temp, ph)
}

func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	// campione fisso, utile come smoke test end-to-end
	s.evaluate(w, defaultTDS, defaultTurbidity, defaultTemperature, defaultPH)
}

func (s *Server) evaluate(w http.ResponseWriter, tds, turb, temp, ph float64) {
	if !s.bundle.Loaded() {
		writeJSON(w, http.StatusOK, potability.ErrorResult{
			Status:  potability.StatusError,
			Message: "AI models not loaded. Please train models first.",
		})
		return
	}

	res, err := potability.Evaluate(tds, turb, temp, ph)
	if err != nil {
		s.metrics.failures.Inc()
		writeJSON(w, http.StatusOK, potability.Failure(err))
		return
	}

	s.metrics.predictions.WithLabelValues(res.PotabilityStatus).Inc()
	s.metrics.scores.Observe(res.PotabilityScore)

	w.Header().Set("X-Evaluation-ID", uuid.NewString())
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	cwd, _ := os.Getwd()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "running",
		"models_loaded":     s.bundle.Loaded(),
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"go_version":        runtime.Version(),
		"working_directory": cwd,
		"model_dir":         s.bundle.Dir(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"models_loaded": s.bundle.Loaded(),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

func paramsFromQuery(q url.Values) (tds, turb, temp, ph float64, err error) {
	if tds, err = queryFloat(q, "tds", defaultTDS); err != nil {
		return
	}
	if turb, err = queryFloat(q, "turbidity", defaultTurbidity); err != nil {
		return
	}
	if temp, err = queryFloat(q, "temperature", defaultTemperature); err != nil {
		return
	}
	ph, err = queryFloat(q, "ph", defaultPH)
	return
}

func paramsFromBody(r *http.Request) (tds, turb, temp, ph float64, err error) {
	var body struct {
		TDS         *float64 `json:"tds_value"`
		Turbidity   *float64 `json:"turbidity_value"`
		Temperature *float64 `json:"temperature"`
		PH          *float64 `json:"ph_level"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		err = fmt.Errorf("invalid JSON body: %v", err)
		return
	}
	tds = orDefault(body.TDS, defaultTDS)
	turb = orDefault(body.Turbidity, defaultTurbidity)
	temp = orDefault(body.Temperature, defaultTemperature)
	ph = orDefault(body.PH, defaultPH)
	return
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func queryFloat(q url.Values, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", key, raw)
	}
	return f, nil
}

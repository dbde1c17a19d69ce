package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

type queryParams struct {
	Minutes   int
	Limit     int
	TimeoutMS int
}

func parseParams(r *http.Request, defMin, defLim, defTOms int) queryParams {
	q := r.URL.Query()
	get := func(k string, def, min, max int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				if n < min {
					return min
				}
				if max > 0 && n > max {
					return max
				}
				return n
			}
		}
		return def
	}
	return queryParams{
		Minutes:   get("minutes", defMin, 1, 7*24*60),
		Limit:     get("limit", defLim, 1, 500),
		TimeoutMS: get("timeout_ms", defTOms, 200, 5000),
	}
}

// NewHTTPMux espone le rotte dell'ingest-service.
//
// GET /data/latest?source=auto|influx|cache&minutes=N
// GET /alerts/recent?limit=20[&minutes=1440]
func NewHTTPMux(svc *Service) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/data/latest", func(w http.ResponseWriter, r *http.Request) {
		source := strings.ToLower(r.URL.Query().Get("source"))
		if source == "" {
			source = "auto"
		}
		p := parseParams(r, 60*24, 500, 2000)

		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
		defer cancel()

		// prefer Influx, fallback cache
		var list []Evaluation
		var used string
		if source == "influx" || source == "auto" {
			if got, err := svc.QueryLatestFromInflux(ctx, p.Minutes); err == nil && len(got) > 0 {
				list, used = got, "influx"
			}
		}
		if used == "" {
			list, used = svc.LatestCache(), "cache"
		}

		type outT struct {
			StationID  string  `json:"station_id"`
			SensorID   string  `json:"sensor_id"`
			TDS        float64 `json:"tds_value"`
			Turbidity  float64 `json:"turbidity_value"`
			Score      float64 `json:"potability_score"`
			Potability string  `json:"potability_status"`
			RiskLevel  string  `json:"risk_level"`
			Timestamp  string  `json:"timestamp"`
		}
		out := make([]outT, 0, len(list))
		for _, e := range list {
			out = append(out, outT{
				StationID:  e.Reading.StationID,
				SensorID:   e.Reading.SensorID,
				TDS:        e.Reading.TDS,
				Turbidity:  e.Reading.Turbidity,
				Score:      e.Result.PotabilityScore,
				Potability: e.Result.PotabilityStatus,
				RiskLevel:  e.Result.RiskLevel,
				Timestamp:  e.Reading.Timestamp.UTC().Format(time.RFC3339),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Data-Source", used)
		_ = json.NewEncoder(w).Encode(out)
	})

	mux.Handle("/alerts/recent", NewRecentAlertsHandler(svc.influx, svc.org, svc.bucket))

	return mux
}

// Alert esposto al gateway.
type Alert struct {
	StationID string  `json:"station_id,omitempty"`
	SensorID  string  `json:"sensor_id,omitempty"`
	Score     float64 `json:"potability_score"`
	RiskLevel string  `json:"risk_level,omitempty"`
	Time      string  `json:"time"` // RFC3339
}

func buildAlertsFlux(bucket string, minutes, limit int) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q)
  |> filter(fn: (r) => r._field == "score")
  |> keep(columns: ["_time","_value","station_id","sensor_id","risk_level"])
  |> sort(columns: ["_time"], desc: true)
  |> limit(n:%d)
`, bucket, minutes, MeasurementAlert, limit)
}

// === HANDLER PUBBLICO ===
// GET /alerts/recent?limit=20[&minutes=1440]
func NewRecentAlertsHandler(influx influxdb2.Client, org, bucket string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := parseParams(r, 1440, 20, 2000)

		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
		defer cancel()

		res, err := influx.QueryAPI(org).Query(ctx, buildAlertsFlux(bucket, p.Minutes, p.Limit))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Error", "influx-query-error")
			_, _ = w.Write([]byte("[]"))
			return
		}
		defer func() { _ = res.Close() }()

		out := make([]Alert, 0, p.Limit)
		for res.Next() {
			rec := res.Record()
			out = append(out, Alert{
				StationID: stringByKey(rec.ValueByKey("station_id")),
				SensorID:  stringByKey(rec.ValueByKey("sensor_id")),
				Score:     floatByKey(rec.Value()),
				RiskLevel: stringByKey(rec.ValueByKey("risk_level")),
				Time:      rec.Time().UTC().Format(time.RFC3339),
			})
		}
		if res.Err() != nil {
			w.Header().Set("X-Error", "influx-iter-error")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}

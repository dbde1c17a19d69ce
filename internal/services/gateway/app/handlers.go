package app

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"
)

// Mux espone le rotte del gateway.
func (g *Gateway) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard/data", g.HandleDashboard)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (g *Gateway) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.HTTPTimeout)
	defer cancel()

	type res struct {
		key string
		val any
		err error
	}
	ch := make(chan res, 3)

	// Fetch in parallelo
	go func() {
		var latest []SensorReading
		err := g.data.GetJSON(ctx, &latest)
		ch <- res{"sensors", latest, err}
	}()
	go func() {
		var alerts []Alert
		err := g.alerts.GetJSON(ctx, &alerts)
		ch <- res{"alerts", alerts, err}
	}()
	go func() {
		var st ModelStatus
		err := g.model.GetJSON(ctx, &st)
		ch <- res{"model", st, err}
	}()

	data := DashboardData{
		Sensors: []SensorReading{},
		Alerts:  []Alert{},
	}

	for i := 0; i < 3; i++ {
		rv := <-ch
		switch rv.key {
		case "sensors":
			if s, ok := rv.val.([]SensorReading); ok && rv.err == nil {
				data.Sensors = s
			}
		case "alerts":
			if a, ok := rv.val.([]Alert); ok && rv.err == nil && len(a) > 0 {
				data.Alerts = a
				g.mu.Lock()
				g.lastGoodAlerts = a
				g.mu.Unlock()
			} else {
				// upstream giù o vuoto: serviamo l'ultima lista valida
				g.mu.Lock()
				if g.lastGoodAlerts != nil {
					data.Alerts = g.lastGoodAlerts
				}
				g.mu.Unlock()
			}
		case "model":
			if m, ok := rv.val.(ModelStatus); ok && rv.err == nil {
				data.Model = m
			}
		}
	}

	// Ordine sensori e statistiche score per la UI
	sort.Slice(data.Sensors, func(i, j int) bool {
		if data.Sensors[i].StationID != data.Sensors[j].StationID {
			return data.Sensors[i].StationID < data.Sensors[j].StationID
		}
		return data.Sensors[i].SensorID < data.Sensors[j].SensorID
	})
	if n := len(data.Sensors); n > 0 {
		var sum float64
		minv := math.MaxFloat64
		maxv := -math.MaxFloat64
		for _, s := range data.Sensors {
			sum += s.Score
			if s.Score < minv {
				minv = s.Score
			}
			if s.Score > maxv {
				maxv = s.Score
			}
		}
		data.Stats = Stats{
			Mean: math.Round(sum/float64(n)*10) / 10,
			Min:  minv,
			Max:  maxv,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)

	g.cfg.Logger.Printf("GET /dashboard/data [%dms] cb[data]=%v cb[alerts]=%v cb[model]=%v sensors=%d alerts=%d",
		time.Since(start).Milliseconds(), g.data.State(), g.alerts.State(), g.model.State(),
		len(data.Sensors), len(data.Alerts))
}

package app

// ---------- Upstream payloads ----------

// SensorReading è la riga di /data/latest dell'ingest-service.
type SensorReading struct {
	StationID  string  `json:"station_id"`
	SensorID   string  `json:"sensor_id"`
	TDS        float64 `json:"tds_value"`
	Turbidity  float64 `json:"turbidity_value"`
	Score      float64 `json:"potability_score"`
	Potability string  `json:"potability_status"`
	RiskLevel  string  `json:"risk_level"`
	Timestamp  string  `json:"timestamp"` // RFC3339
}

// Alert è la riga di /alerts/recent dell'ingest-service.
type Alert struct {
	StationID string  `json:"station_id,omitempty"`
	SensorID  string  `json:"sensor_id,omitempty"`
	Score     float64 `json:"potability_score"`
	RiskLevel string  `json:"risk_level,omitempty"`
	Time      string  `json:"time"` // RFC3339
}

// ModelStatus è il sottoinsieme di /status del prediction-service che
// interessa alla dashboard.
type ModelStatus struct {
	Status       string `json:"status"`
	ModelsLoaded bool   `json:"models_loaded"`
}

type Stats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

type DashboardData struct {
	Sensors []SensorReading `json:"sensors"`
	Alerts  []Alert         `json:"alerts"`
	Model   ModelStatus     `json:"model"`
	Stats   Stats           `json:"stats"`
}

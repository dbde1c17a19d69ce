package messages

import (
	"time"
)

// this will hold both real-time and aggregated readings.
type WaterReading struct {
	StationID   string    `json:"station_id"`
	SensorID    string    `json:"sensor_id"`
	TDS         float64   `json:"tds_value"`       // ppm
	Turbidity   float64   `json:"turbidity_value"` // NTU
	Temperature float64   `json:"temperature"`     // °C
	PH          float64   `json:"ph_level"`
	Aggregated  bool      `json:"aggregated"`
	Timestamp   time.Time `json:"timestamp"`
}

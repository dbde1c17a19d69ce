package entities

// WaterSensor represents a single probe installed at a station.
type WaterSensor struct {
	StationID string  `json:"station_id"`
	ID        string  `json:"id"` // unique sensor identifier
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	DepthCM   int     `json:"depth_cm,omitempty"` // profondità di installazione della sonda

	// Baseline del punto di prelievo, usate dal simulatore come seed.
	BaselineTDS       float64 `json:"baseline_tds,omitempty"`       // ppm
	BaselineTurbidity float64 `json:"baseline_turbidity,omitempty"` // NTU
}

package messages

import "time"

// PotabilityAlertEvent è pubblicato dall'ingest-service quando una lettura
// aggregata risulta non potabile. Allineato allo stile degli altri eventi
// in internal/model/messages/*.
type PotabilityAlertEvent struct {
	EventID        string    `json:"event_id"`
	StationID      string    `json:"station_id"`
	SensorID       string    `json:"sensor_id"`
	Score          float64   `json:"potability_score"` // 0..100
	RiskLevel      string    `json:"risk_level"`       // "Low" | "High"
	ActionRequired string    `json:"action_required"`
	Recommendation string    `json:"recommendation"`
	Timestamp      time.Time `json:"timestamp"` // ts della lettura valutata
}

package entities

// Station represents a sampling point of the water network,
// and contains one or more probes.
type Station struct {
	ID      string        `json:"id"`     // unique station identifier
	Source  string        `json:"source"` // e.g. "well", "river", "reservoir"
	Sensors []WaterSensor `json:"sensors"`
}

func (s *Station) GetSensor(sensorID string) *WaterSensor {
	for i := range s.Sensors {
		if s.Sensors[i].ID == sensorID {
			return &s.Sensors[i]
		}
	}
	return nil
}

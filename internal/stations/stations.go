package stations

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/acquasense/potability/internal/model"
)

// file registry delle stazioni, formato:
//
//	stations:
//	  - id: station-1
//	    source: well
//	    sensors:
//	      - id: ws-01
//	        latitude: 41.9
//	        longitude: 12.5
//	        baseline_tds: 320
//	        baseline_turbidity: 0.6
type registryFile struct {
	Stations []stationYAML `yaml:"stations"`
}

type stationYAML struct {
	ID      string       `yaml:"id"`
	Source  string       `yaml:"source"`
	Sensors []sensorYAML `yaml:"sensors"`
}

type sensorYAML struct {
	ID                string  `yaml:"id"`
	Latitude          float64 `yaml:"latitude"`
	Longitude         float64 `yaml:"longitude"`
	DepthCM           int     `yaml:"depth_cm"`
	BaselineTDS       float64 `yaml:"baseline_tds"`
	BaselineTurbidity float64 `yaml:"baseline_turbidity"`
}

// Load legge il registry YAML e ritorna una mappa stationID -> Station.
// Ogni sensore eredita lo StationID della stazione che lo contiene.
func Load(path string) (map[string]model.Station, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations registry: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse stations registry: %w", err)
	}
	if len(file.Stations) == 0 {
		return nil, fmt.Errorf("stations registry %s is empty", path)
	}

	out := make(map[string]model.Station, len(file.Stations))
	for _, st := range file.Stations {
		if st.ID == "" {
			return nil, fmt.Errorf("station without id in %s", path)
		}
		station := model.Station{ID: st.ID, Source: st.Source}
		for _, sn := range st.Sensors {
			if sn.ID == "" {
				return nil, fmt.Errorf("sensor without id in station %s", st.ID)
			}
			station.Sensors = append(station.Sensors, model.WaterSensor{
				StationID:         st.ID,
				ID:                sn.ID,
				Latitude:          sn.Latitude,
				Longitude:         sn.Longitude,
				DepthCM:           sn.DepthCM,
				BaselineTDS:       sn.BaselineTDS,
				BaselineTurbidity: sn.BaselineTurbidity,
			})
		}
		out[st.ID] = station
	}
	return out, nil
}

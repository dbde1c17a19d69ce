package stations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRegistry = `
stations:
  - id: station-1
    source: well
    sensors:
      - id: ws-01
        latitude: 41.9028
        longitude: 12.4964
        baseline_tds: 320
        baseline_turbidity: 0.6
      - id: ws-02
        baseline_tds: 410
        baseline_turbidity: 0.9
  - id: station-2
    source: river
    sensors:
      - id: ws-03
        baseline_tds: 620
        baseline_turbidity: 3.2
`

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	reg, err := Load(writeRegistry(t, sampleRegistry))
	require.NoError(t, err)
	require.Len(t, reg, 2)

	st, ok := reg["station-1"]
	require.True(t, ok)
	assert.Equal(t, "well", st.Source)
	require.Len(t, st.Sensors, 2)

	// ogni sensore eredita lo StationID
	assert.Equal(t, "station-1", st.Sensors[0].StationID)
	assert.Equal(t, 320.0, st.Sensors[0].BaselineTDS)

	s := st.GetSensor("ws-02")
	require.NotNil(t, s)
	assert.Equal(t, 0.9, s.BaselineTurbidity)
	assert.Nil(t, st.GetSensor("missing"))
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeRegistry(t, "stations: [\n"))
		assert.Error(t, err)
	})
	t.Run("empty registry", func(t *testing.T) {
		_, err := Load(writeRegistry(t, "stations: []"))
		assert.Error(t, err)
	})
	t.Run("station without id", func(t *testing.T) {
		_, err := Load(writeRegistry(t, "stations:\n  - source: well\n"))
		assert.Error(t, err)
	})
}

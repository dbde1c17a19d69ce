package potability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareFeatures(t *testing.T) {
	// mercoledì 15 maggio 2024, 14:30 UTC
	now := time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)

	f := PrepareFeatures(350, 0.8, 25, 7.0, now)
	require.Len(t, f, FeatureCount)

	assert.Equal(t, 350.0, f[0])
	assert.Equal(t, 0.8, f[1])
	assert.Equal(t, 14.0, f[2])               // hour
	assert.Equal(t, 2.0, f[3])                // lunedì=0 → mercoledì=2
	assert.Equal(t, 136.0, f[4])              // day of year
	assert.Equal(t, 25.0, f[5])               // temperature
	assert.Equal(t, 3.5, f[6])                // voltage placeholder
	assert.Equal(t, 875.0, f[7])              // analog approx
	assert.Equal(t, 700.0, f[8])              // conductivity approx
	assert.InDelta(t, 350.0/0.9, f[9], 1e-9)  // tds/turbidity ratio
	assert.InDelta(t, 350.0/500+0.8, f[10], 1e-9)
}

func TestPrepareFeaturesZeroTurbidity(t *testing.T) {
	// il +0.1 al denominatore evita la divisione per zero
	f := PrepareFeatures(500, 0, 25, 7.0, time.Now())
	assert.InDelta(t, 5000.0, f[9], 1e-9)
}

func TestWeekdayMondayZero(t *testing.T) {
	monday := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 5, 19, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, weekdayMondayZero(monday))
	assert.Equal(t, 6, weekdayMondayZero(sunday))
}

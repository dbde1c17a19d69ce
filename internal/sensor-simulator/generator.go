package sensor_simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/acquasense/potability/internal/model/entities"
	"github.com/acquasense/potability/internal/model/messages"
)

// ====== Tunables ======
const (
	// reversionPerMin: frazione di ritorno verso il target per minuto.
	reversionPerMin = 0.10

	// contaminationChance: probabilità per tick di inizio episodio.
	contaminationChance = 0.02

	// contaminationDecayPerMin: decadimento naturale dell'episodio.
	contaminationDecayPerMin = 0.03

	// Baseline di fallback se il registry non le fornisce.
	defaultBaselineTDS       = 300.0
	defaultBaselineTurbidity = 0.5
	defaultTemperature       = 18.0
	defaultPH                = 7.2
)

// DataGenerator mantiene lo stato interno dei quattro parametri e lo fa
// derivare nel tempo: random walk con ritorno al baseline del sensore, più
// episodi di contaminazione occasionali che alzano TDS e torbidità.
type DataGenerator struct {
	mu     sync.Mutex
	seeded bool
	last   time.Time

	tds         float64
	turbidity   float64
	temperature float64
	ph          float64

	// contamination in [0..1]: 0 = acqua pulita, 1 = episodio al picco.
	contamination float64
	remediating   bool

	rng *rand.Rand
}

func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *DataGenerator) seedFrom(sensor *entities.WaterSensor) {
	g.tds = sensor.BaselineTDS
	if g.tds <= 0 {
		g.tds = defaultBaselineTDS
	}
	g.turbidity = sensor.BaselineTurbidity
	if g.turbidity <= 0 {
		g.turbidity = defaultBaselineTurbidity
	}
	// le sonde profonde leggono acqua più fredda
	g.temperature = defaultTemperature - float64(sensor.DepthCM)/100.0
	g.ph = defaultPH
	g.last = time.Now().UTC()
	g.seeded = true
}

// Next aggiorna lo stato interno e restituisce una lettura raw.
func (g *DataGenerator) Next(sensor *entities.WaterSensor) (messages.WaterReading, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UTC()
	if !g.seeded {
		g.seedFrom(sensor)
	}

	dtMin := now.Sub(g.last).Minutes()
	if dtMin < 0 {
		dtMin = 0
	}
	g.last = now

	// inizio episodio di contaminazione (mai durante la bonifica)
	if !g.remediating && g.contamination == 0 && g.rng.Float64() < contaminationChance {
		g.contamination = 0.5 + 0.5*g.rng.Float64()
	}
	g.contamination *= math.Exp(-contaminationDecayPerMin * dtMin)
	if g.contamination < 0.01 {
		g.contamination = 0
	}

	baseTDS := sensor.BaselineTDS
	if baseTDS <= 0 {
		baseTDS = defaultBaselineTDS
	}
	baseTurb := sensor.BaselineTurbidity
	if baseTurb <= 0 {
		baseTurb = defaultBaselineTurbidity
	}

	// target = baseline gonfiato dall'episodio in corso
	targetTDS := baseTDS * (1 + 3*g.contamination)
	targetTurb := baseTurb + 15*g.contamination
	targetPH := defaultPH - 0.8*g.contamination

	pull := math.Min(1, reversionPerMin*dtMin)
	g.tds += (targetTDS-g.tds)*pull + g.rng.NormFloat64()*3
	g.turbidity += (targetTurb-g.turbidity)*pull + g.rng.NormFloat64()*0.05
	g.temperature += g.rng.NormFloat64() * 0.1
	g.ph += (targetPH-g.ph)*pull + g.rng.NormFloat64()*0.02

	g.tds = math.Max(0, g.tds)
	g.turbidity = math.Max(0, g.turbidity)
	g.ph = clampPH(g.ph)

	return messages.WaterReading{
		StationID:   sensor.StationID,
		SensorID:    sensor.ID,
		TDS:         round1(g.tds),
		Turbidity:   round2(g.turbidity),
		Temperature: round1(g.temperature),
		PH:          round2(g.ph),
		Aggregated:  false,
		Timestamp:   now,
	}, nil
}

// Remediate azzera l'episodio in corso e blocca nuovi episodi finché
// EndRemediation non viene chiamato (simula il flush della linea).
func (g *DataGenerator) Remediate() {
	g.mu.Lock()
	g.contamination = 0
	g.remediating = true
	g.mu.Unlock()
}

func (g *DataGenerator) EndRemediation() {
	g.mu.Lock()
	g.remediating = false
	g.mu.Unlock()
}

// ===== Helpers =====

func clampPH(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 14 {
		return 14
	}
	return x
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }

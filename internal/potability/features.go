package potability

import "time"

// FeatureCount è la dimensione del vettore atteso dai modelli addestrati.
const FeatureCount = 11

// defaultVoltage è il placeholder usato in training quando la tensione
// della sonda non era campionata.
const defaultVoltage = 3.5

// ModelScorer è l'interfaccia verso i modelli addestrati (classifier e
// regressor). Tenuta separata dal rule engine: il verdetto restituito
// dalle API NON passa da qui.
type ModelScorer interface {
	Score(features []float64) (float64, error)
}

// PrepareFeatures costruisce il vettore a 11 elementi nello stesso ordine
// del dataset di training. ph è accettato per simmetria con Evaluate ma il
// training set non lo includeva.
func PrepareFeatures(tds, turbidity, temperature, _ float64, now time.Time) []float64 {
	return []float64{
		tds,
		turbidity,
		float64(now.Hour()),
		float64(weekdayMondayZero(now)),
		float64(now.YearDay()),
		temperature,
		defaultVoltage,
		tds * 2.5,                 // analog_value (approssimazione)
		tds * 2,                   // conductivity (approssimazione)
		tds / (turbidity + 0.1),   // tds_turbidity_ratio
		tds/TDSLimit + turbidity/TurbidityLimit, // quality_index
	}
}

// weekdayMondayZero: il training usava lunedì=0 … domenica=6.
func weekdayMondayZero(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

package potability

import (
	"fmt"
	"math"
	"strings"
)

// Linee guida WHO usate dalla classificazione rule-based.
const (
	TDSLimit       = 500.0 // ppm
	TurbidityLimit = 1.0   // NTU
)

// Confidence fissa riportata con ogni risultato.
const Confidence = 0.85

// Metadati statici dei modelli addestrati (provenienza, non partecipano al verdetto).
const (
	modelVersion  = "1.0"
	trainingDate  = "2024-10-21"
	modelAccuracy = "99.5%"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	VerdictPotable    = "Potable"
	VerdictNotPotable = "Not Potable"

	RiskLow  = "Low"
	RiskHigh = "High"
)

type Compliance struct {
	TDSCompliant       bool `json:"tds_compliant"`
	TurbidityCompliant bool `json:"turbidity_compliant"`
	OverallCompliant   bool `json:"overall_compliant"`
}

type Parameters struct {
	TDS         float64 `json:"tds_value"`
	Turbidity   float64 `json:"turbidity_value"`
	Temperature float64 `json:"temperature"`
	PH          float64 `json:"ph_level"`
}

type Guidelines struct {
	TDSLimit       float64 `json:"tds_limit"`
	TurbidityLimit float64 `json:"turbidity_limit"`
}

type AIInfo struct {
	ModelVersion string `json:"model_version"`
	TrainingDate string `json:"training_date"`
	Accuracy     string `json:"accuracy"`
}

// Result è il record prodotto per ogni valutazione riuscita.
type Result struct {
	Status           string     `json:"status"`
	PotabilityStatus string     `json:"potability_status"`
	PotabilityScore  float64    `json:"potability_score"`
	Confidence       float64    `json:"confidence"`
	RiskLevel        string     `json:"risk_level"`
	Recommendation   string     `json:"recommendation"`
	ActionRequired   string     `json:"action_required"`
	WHOCompliance    Compliance `json:"who_compliance"`
	Parameters       Parameters `json:"parameters"`
	WHOGuidelines    Guidelines `json:"who_guidelines"`
	AIInfo           AIInfo     `json:"ai_info"`
}

// ErrorResult è la forma wire del fallimento: nessun risultato parziale.
type ErrorResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Failure mappa un errore interno nel record di errore esposto sul wire.
func Failure(err error) ErrorResult {
	return ErrorResult{Status: StatusError, Message: fmt.Sprintf("AI prediction failed: %v", err)}
}

// Evaluate esegue la classificazione rule-based sulle soglie WHO.
// temperature e ph sono solo informativi: non entrano nello score.
// Valori negativi o fuori range passano invariati (stessa scelta del
// training pipeline); solo input non finiti producono errore.
func Evaluate(tds, turbidity, temperature, ph float64) (Result, error) {
	if err := checkFinite(tds, turbidity, temperature, ph); err != nil {
		return Result{}, err
	}

	tdsOK := tds <= TDSLimit
	turbOK := turbidity <= TurbidityLimit

	verdict := VerdictNotPotable
	if tdsOK && turbOK {
		verdict = VerdictPotable
	}

	// Score 0-100: qualunque violazione WHO toglie almeno 35 punti,
	// quindi un campione non conforme resta sempre sotto il 70%.
	score := 100.0 - tdsDeduction(tds) - turbidityDeduction(turbidity)
	score = math.Max(0.0, math.Min(100.0, score))

	issues := make([]string, 0, 2)
	actions := make([]string, 0, 2)
	risk := RiskLow

	if tds > TDSLimit {
		issues = append(issues, "Water is NOT potable. TDS exceeds WHO limit. Consider treatment like filtration or chemical disinfection.")
		actions = append(actions, "TDS treatment required")
		risk = RiskHigh
	}
	if turbidity > TurbidityLimit {
		issues = append(issues, "High Turbidity: May contain pathogens, use sediment filters.")
		actions = append(actions, "Sediment filtration required")
		risk = RiskHigh
	}

	recommendation := "Water is POTABLE. No immediate action needed."
	actionRequired := "None"
	if len(issues) > 0 {
		recommendation = strings.Join(issues, " ")
		actionRequired = strings.Join(actions, ", ")
	}

	return Result{
		Status:           StatusSuccess,
		PotabilityStatus: verdict,
		PotabilityScore:  score,
		Confidence:       Confidence,
		RiskLevel:        risk,
		Recommendation:   recommendation,
		ActionRequired:   actionRequired,
		WHOCompliance: Compliance{
			TDSCompliant:       tdsOK,
			TurbidityCompliant: turbOK,
			OverallCompliant:   tdsOK && turbOK,
		},
		Parameters: Parameters{
			TDS:         tds,
			Turbidity:   turbidity,
			Temperature: temperature,
			PH:          ph,
		},
		WHOGuidelines: Guidelines{
			TDSLimit:       TDSLimit,
			TurbidityLimit: TurbidityLimit,
		},
		AIInfo: AIInfo{
			ModelVersion: modelVersion,
			TrainingDate: trainingDate,
			Accuracy:     modelAccuracy,
		},
	}, nil
}

// tdsDeduction: prima banda (dalla più severa) che matcha vince,
// una sola detrazione per parametro.
func tdsDeduction(tds float64) float64 {
	switch {
	case tds > 1200:
		return 50
	case tds > 900:
		return 45
	case tds > 600:
		return 40
	case tds > TDSLimit:
		return 35
	default:
		return 0
	}
}

func turbidityDeduction(turbidity float64) float64 {
	switch {
	case turbidity > 50:
		return 50
	case turbidity > 10:
		return 45
	case turbidity > 5:
		return 40
	case turbidity > TurbidityLimit:
		return 35
	default:
		return 0
	}
}

func checkFinite(vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite input value %v", v)
		}
	}
	return nil
}

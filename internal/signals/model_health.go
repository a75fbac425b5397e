package signals

import "github.com/propdesk/bestbets/internal/models"

// Hit-rate tier boundaries for the champion model. 52.4% is breakeven at
// standard -110 odds.
const (
	BreakevenHR = 52.4
	WarningHR   = 58.0
)

// Health tiers surfaced as metadata.
const (
	HealthTierHealthy   = "HEALTHY"
	HealthTierWarning   = "WARNING"
	HealthTierBreakeven = "BELOW_BREAKEVEN"
	HealthTierUnknown   = "UNKNOWN"
)

// ModelHealthSignal always qualifies. It exists purely to surface the
// champion model's rolling hit-rate tier as metadata for downstream
// explanation; it never blocks a pick on its own.
type ModelHealthSignal struct{}

func (s *ModelHealthSignal) Tag() string { return TagModelHealth }

func (s *ModelHealthSignal) Evaluate(_ models.PredictionRecord, _ models.FeatureMap, supplemental models.Supplemental) models.SignalResult {
	tier := HealthTierUnknown
	hr := 0.0
	if health, ok := block(supplemental, BlockModelHealth); ok {
		if v, ok := health["hr_30d"]; ok {
			hr = v
			switch {
			case hr >= WarningHR:
				tier = HealthTierHealthy
			case hr >= BreakevenHR:
				tier = HealthTierWarning
			default:
				tier = HealthTierBreakeven
			}
		}
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 1.0,
		SourceTag:  TagModelHealth,
		Metadata: map[string]interface{}{
			"tier":   tier,
			"hr_30d": hr,
		},
	}
}

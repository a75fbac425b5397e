// Package signals holds the pluggable signal-evaluation contract and the
// built-in signal set. Every signal encapsulates one empirically-discovered
// pattern over a single candidate prediction; signals never depend on each
// other and never perform I/O.
package signals

import "github.com/propdesk/bestbets/internal/models"

// Evaluator is the capability contract for one signal. Implementations
// must be pure: no I/O, no mutation of inputs, deterministic given
// identical inputs. Missing supplemental blocks are treated as
// non-qualifying, never as errors.
//
// Confidence is informational only; qualification toward the aggregator's
// signal-count floor is driven solely by SignalResult.Qualifies.
type Evaluator interface {
	Tag() string
	Evaluate(pred models.PredictionRecord, features models.FeatureMap, supplemental models.Supplemental) models.SignalResult
}

// Registry is an ordered collection of active evaluators, built once per
// run. Iteration order is stable within a run; it affects debug output
// ordering only, never correctness.
type Registry struct {
	evaluators []Evaluator
}

// NewRegistry builds a registry preserving the given order.
func NewRegistry(evaluators ...Evaluator) *Registry {
	return &Registry{evaluators: evaluators}
}

// All returns the evaluators in registration order.
func (r *Registry) All() []Evaluator {
	return r.evaluators
}

// Tags returns the tag of every registered evaluator, in order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.evaluators))
	for _, ev := range r.evaluators {
		tags = append(tags, ev.Tag())
	}
	return tags
}

// EvaluateAll runs every registered signal against one candidate and
// returns the results in registration order.
func (r *Registry) EvaluateAll(pred models.PredictionRecord, features models.FeatureMap, supplemental models.Supplemental) []models.SignalResult {
	results := make([]models.SignalResult, 0, len(r.evaluators))
	for _, ev := range r.evaluators {
		results = append(results, ev.Evaluate(pred, features, supplemental))
	}
	return results
}

// QualifyingTags extracts the source tags of qualifying results,
// preserving evaluation order.
func QualifyingTags(results []models.SignalResult) []string {
	var tags []string
	for _, res := range results {
		if res.Qualifies {
			tags = append(tags, res.SourceTag)
		}
	}
	return tags
}

// BuildDefaultRegistry assembles the production signal set. Order matches
// the historical debug-output ordering; new signals append at the end.
func BuildDefaultRegistry() *Registry {
	return NewRegistry(
		&HighEdgeSignal{},
		&ExtremeEdgeSignal{},
		&BenchPlayerUnderSignal{},
		&BackToBackFatigueSignal{},
		&ThreePtBounceBackSignal{},
		&HotStreakOverSignal{},
		&ColdStreakUnderSignal{},
		&MinutesSurgeSignal{},
		&RestAdvantageSignal{},
		&StarTeammatesOutSignal{},
		&UsageVacuumSignal{},
		&BookConsensusSignal{},
		&PropLineDiscountSignal{},
		&BlowoutRiskUnderSignal{},
		&V12AgreementSignal{},
		&RecoveryFadeSignal{},
		&HighQualityDataSignal{},
		&HomeStarOverSignal{},
		&ModelHealthSignal{},
	)
}

package signals

import (
	"math"

	"github.com/propdesk/bestbets/internal/models"
)

// Signal tags. Stable identifiers: they key the combo registry and the
// signal-health tables, so renaming one invalidates history.
const (
	TagHighEdge         = "high_edge"
	TagExtremeEdge      = "extreme_edge"
	TagBenchUnderEdge   = "bench_under_edge"
	TagB2BFatigueUnder  = "b2b_fatigue_under"
	TagThreePtBounce    = "3pt_bounce_back"
	TagHotStreakOver    = "hot_streak_over"
	TagColdStreakUnder  = "cold_streak_under"
	TagMinutesSurge     = "minutes_surge"
	TagRestAdvantage    = "rest_advantage"
	TagStarTeammatesOut = "star_teammates_out"
	TagUsageVacuum      = "usage_vacuum"
	TagBookConsensus    = "book_consensus"
	TagPropLineDiscount = "prop_line_discount"
	TagBlowoutRiskUnder = "blowout_risk_under"
	TagV12Agreement     = "v12_agreement"
	TagRecoveryFade     = "recovery_fade"
	TagHighQualityData  = "high_quality_data"
	TagHomeStarOver     = "home_star_over"
	TagModelHealth      = "model_health"
)

// Supplemental block names consumed by the built-in set.
const (
	BlockThreePtStats  = "three_pt_stats"
	BlockStreakStats   = "streak_stats"
	BlockMinutesStats  = "minutes_stats"
	BlockRestStats     = "rest_stats"
	BlockBookStats     = "book_stats"
	BlockPropLineStats = "prop_line_stats"
	BlockV12Prediction = "v12_prediction"
	BlockRecoveryStats = "recovery_stats"
	BlockModelHealth   = "model_health"
)

// Empirically-tuned thresholds. Tuning parameters, not structure: retune
// here without touching any Evaluate body.
const (
	highEdgeMin    = 5.0
	extremeEdgeMin = 8.0

	benchUnderLineMax = 18.0
	benchUnderEdgeMin = 3.0

	threePtSlumpGap   = 8.0 // season 3pt% minus last-3 3pt%, percentage points
	threePtSeasonMin  = 33.0
	hotStreakMinOvers = 3
	coldStreakMinUnds = 3

	minutesSurgeGap  = 4.0 // last-3 minutes minus season minutes
	restAdvantageMin = 3.0 // full days of rest

	starOutMinCount  = 1
	usageVacuumMin   = 20.0 // teammate usage % freed up
	bookStdMax       = 0.5
	bookCountMin     = 4
	propDiscountMin  = 2.0  // season avg line minus today's line
	blowoutSpreadMin = 12.0 // abs vegas spread
	v12AgreeMargin   = 2.0
	recoveryGamesMax = 2
	qualityEliteMin  = 95.0
	homeStarEdgeMin  = 4.0
)

func block(supplemental models.Supplemental, name string) (models.Block, bool) {
	if supplemental == nil {
		return nil, false
	}
	b, ok := supplemental[name]
	return b, ok && b != nil
}

func noQualify(tag string) models.SignalResult {
	return models.SignalResult{Qualifies: false, SourceTag: tag}
}

// HighEdgeSignal fires on any direction once the absolute edge clears
// highEdgeMin. Confidence scales linearly toward the extreme-edge bound.
type HighEdgeSignal struct{}

func (s *HighEdgeSignal) Tag() string { return TagHighEdge }

func (s *HighEdgeSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, _ models.Supplemental) models.SignalResult {
	absEdge := math.Abs(pred.Edge)
	if absEdge < highEdgeMin {
		return noQualify(TagHighEdge)
	}
	conf := math.Min(1.0, 0.5+(absEdge-highEdgeMin)/(2*(extremeEdgeMin-highEdgeMin)))
	return models.SignalResult{
		Qualifies:  true,
		Confidence: conf,
		SourceTag:  TagHighEdge,
		Metadata:   map[string]interface{}{"abs_edge": absEdge},
	}
}

// ExtremeEdgeSignal fires above extremeEdgeMin regardless of direction.
type ExtremeEdgeSignal struct{}

func (s *ExtremeEdgeSignal) Tag() string { return TagExtremeEdge }

func (s *ExtremeEdgeSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, _ models.Supplemental) models.SignalResult {
	absEdge := math.Abs(pred.Edge)
	if absEdge < extremeEdgeMin {
		return noQualify(TagExtremeEdge)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.9,
		SourceTag:  TagExtremeEdge,
		Metadata:   map[string]interface{}{"abs_edge": absEdge},
	}
}

// BenchPlayerUnderSignal targets UNDER picks on modest lines where the
// model sees a solid edge. Very low lines are handled separately by the
// aggregator's bench_under block.
type BenchPlayerUnderSignal struct{}

func (s *BenchPlayerUnderSignal) Tag() string { return TagBenchUnderEdge }

func (s *BenchPlayerUnderSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, _ models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionUnder {
		return noQualify(TagBenchUnderEdge)
	}
	if pred.LineValue > benchUnderLineMax || math.Abs(pred.Edge) < benchUnderEdgeMin {
		return noQualify(TagBenchUnderEdge)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.6,
		SourceTag:  TagBenchUnderEdge,
		Metadata:   map[string]interface{}{"line_value": pred.LineValue},
	}
}

// BackToBackFatigueSignal fires on UNDER picks when the player is on the
// second night of a back-to-back.
type BackToBackFatigueSignal struct{}

func (s *BackToBackFatigueSignal) Tag() string { return TagB2BFatigueUnder }

func (s *BackToBackFatigueSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, supplemental models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionUnder {
		return noQualify(TagB2BFatigueUnder)
	}
	rest, ok := block(supplemental, BlockRestStats)
	if !ok {
		return noQualify(TagB2BFatigueUnder)
	}
	daysRest, ok := rest["days_rest"]
	if !ok || daysRest > 0 {
		return noQualify(TagB2BFatigueUnder)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.65,
		SourceTag:  TagB2BFatigueUnder,
		Metadata:   map[string]interface{}{"days_rest": daysRest},
	}
}

// ThreePtBounceBackSignal fires on OVER picks for capable shooters whose
// recent 3pt% sits well below their season rate.
type ThreePtBounceBackSignal struct{}

func (s *ThreePtBounceBackSignal) Tag() string { return TagThreePtBounce }

func (s *ThreePtBounceBackSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, supplemental models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionOver {
		return noQualify(TagThreePtBounce)
	}
	tp, ok := block(supplemental, BlockThreePtStats)
	if !ok {
		return noQualify(TagThreePtBounce)
	}
	seasonPct, ok1 := tp["season_pct"]
	last3Pct, ok2 := tp["last3_pct"]
	if !ok1 || !ok2 {
		return noQualify(TagThreePtBounce)
	}
	if seasonPct < threePtSeasonMin || seasonPct-last3Pct < threePtSlumpGap {
		return noQualify(TagThreePtBounce)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.55,
		SourceTag:  TagThreePtBounce,
		Metadata: map[string]interface{}{
			"season_pct": seasonPct,
			"last3_pct":  last3Pct,
		},
	}
}

// HotStreakOverSignal fires when a player has cleared the line in each of
// the last N games and the model agrees with the over.
type HotStreakOverSignal struct{}

func (s *HotStreakOverSignal) Tag() string { return TagHotStreakOver }

func (s *HotStreakOverSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, supplemental models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionOver {
		return noQualify(TagHotStreakOver)
	}
	streak, ok := block(supplemental, BlockStreakStats)
	if !ok {
		return noQualify(TagHotStreakOver)
	}
	overs, ok := streak["consecutive_overs"]
	if !ok || int(overs) < hotStreakMinOvers {
		return noQualify(TagHotStreakOver)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.6,
		SourceTag:  TagHotStreakOver,
		Metadata:   map[string]interface{}{"consecutive_overs": int(overs)},
	}
}

// ColdStreakUnderSignal is the UNDER mirror of the hot streak.
type ColdStreakUnderSignal struct{}

func (s *ColdStreakUnderSignal) Tag() string { return TagColdStreakUnder }

func (s *ColdStreakUnderSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, supplemental models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionUnder {
		return noQualify(TagColdStreakUnder)
	}
	streak, ok := block(supplemental, BlockStreakStats)
	if !ok {
		return noQualify(TagColdStreakUnder)
	}
	unders, ok := streak["consecutive_unders"]
	if !ok || int(unders) < coldStreakMinUnds {
		return noQualify(TagColdStreakUnder)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.6,
		SourceTag:  TagColdStreakUnder,
		Metadata:   map[string]interface{}{"consecutive_unders": int(unders)},
	}
}

// MinutesSurgeSignal fires on OVER picks when recent playing time is
// materially above the season baseline.
type MinutesSurgeSignal struct{}

func (s *MinutesSurgeSignal) Tag() string { return TagMinutesSurge }

func (s *MinutesSurgeSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, supplemental models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionOver {
		return noQualify(TagMinutesSurge)
	}
	minutes, ok := block(supplemental, BlockMinutesStats)
	if !ok {
		return noQualify(TagMinutesSurge)
	}
	seasonAvg, ok1 := minutes["season_avg"]
	last3Avg, ok2 := minutes["last3_avg"]
	if !ok1 || !ok2 || last3Avg-seasonAvg < minutesSurgeGap {
		return noQualify(TagMinutesSurge)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.6,
		SourceTag:  TagMinutesSurge,
		Metadata: map[string]interface{}{
			"season_avg": seasonAvg,
			"last3_avg":  last3Avg,
		},
	}
}

// RestAdvantageSignal fires on OVER picks after extended rest.
type RestAdvantageSignal struct{}

func (s *RestAdvantageSignal) Tag() string { return TagRestAdvantage }

func (s *RestAdvantageSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, supplemental models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionOver {
		return noQualify(TagRestAdvantage)
	}
	rest, ok := block(supplemental, BlockRestStats)
	if !ok {
		return noQualify(TagRestAdvantage)
	}
	daysRest, ok := rest["days_rest"]
	if !ok || daysRest < restAdvantageMin {
		return noQualify(TagRestAdvantage)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.5,
		SourceTag:  TagRestAdvantage,
		Metadata:   map[string]interface{}{"days_rest": daysRest},
	}
}

// StarTeammatesOutSignal fires on OVER picks when at least one star
// teammate is ruled out, opening scoring volume.
type StarTeammatesOutSignal struct{}

func (s *StarTeammatesOutSignal) Tag() string { return TagStarTeammatesOut }

func (s *StarTeammatesOutSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, _ models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionOver || pred.StarTeammatesOut < starOutMinCount {
		return noQualify(TagStarTeammatesOut)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.7,
		SourceTag:  TagStarTeammatesOut,
		Metadata:   map[string]interface{}{"star_teammates_out": pred.StarTeammatesOut},
	}
}

// UsageVacuumSignal fires on OVER picks when a large share of teammate
// usage is unavailable tonight.
type UsageVacuumSignal struct{}

func (s *UsageVacuumSignal) Tag() string { return TagUsageVacuum }

func (s *UsageVacuumSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, _ models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionOver || pred.TeammateUsageAvailable < usageVacuumMin {
		return noQualify(TagUsageVacuum)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.65,
		SourceTag:  TagUsageVacuum,
		Metadata:   map[string]interface{}{"teammate_usage_available": pred.TeammateUsageAvailable},
	}
}

// BookConsensusSignal fires when several books post a tight line cluster,
// indicating an efficient number the model still disagrees with.
type BookConsensusSignal struct{}

func (s *BookConsensusSignal) Tag() string { return TagBookConsensus }

func (s *BookConsensusSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, supplemental models.Supplemental) models.SignalResult {
	book, ok := block(supplemental, BlockBookStats)
	if !ok {
		return noQualify(TagBookConsensus)
	}
	std, ok1 := book["line_std"]
	count, ok2 := book["num_books"]
	if !ok1 || !ok2 || std > bookStdMax || int(count) < bookCountMin {
		return noQualify(TagBookConsensus)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.55,
		SourceTag:  TagBookConsensus,
		Metadata: map[string]interface{}{
			"line_std":  std,
			"num_books": int(count),
		},
	}
}

// PropLineDiscountSignal fires on OVER picks when today's line sits well
// below the player's season-average posting.
type PropLineDiscountSignal struct{}

func (s *PropLineDiscountSignal) Tag() string { return TagPropLineDiscount }

func (s *PropLineDiscountSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, supplemental models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionOver {
		return noQualify(TagPropLineDiscount)
	}
	prop, ok := block(supplemental, BlockPropLineStats)
	if !ok {
		return noQualify(TagPropLineDiscount)
	}
	seasonAvgLine, ok := prop["season_avg_line"]
	if !ok || seasonAvgLine-pred.LineValue < propDiscountMin {
		return noQualify(TagPropLineDiscount)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.6,
		SourceTag:  TagPropLineDiscount,
		Metadata: map[string]interface{}{
			"season_avg_line": seasonAvgLine,
			"line_value":      pred.LineValue,
		},
	}
}

// BlowoutRiskUnderSignal fires on UNDER picks in games with a large vegas
// spread, where fourth-quarter benching suppresses star minutes. Reads
// the precomputed feature map rather than a supplemental block.
type BlowoutRiskUnderSignal struct{}

func (s *BlowoutRiskUnderSignal) Tag() string { return TagBlowoutRiskUnder }

func (s *BlowoutRiskUnderSignal) Evaluate(pred models.PredictionRecord, features models.FeatureMap, _ models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionUnder || features == nil {
		return noQualify(TagBlowoutRiskUnder)
	}
	spread, ok := features["vegas_spread"]
	if !ok || math.Abs(spread) < blowoutSpreadMin {
		return noQualify(TagBlowoutRiskUnder)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.6,
		SourceTag:  TagBlowoutRiskUnder,
		Metadata:   map[string]interface{}{"vegas_spread": spread},
	}
}

// V12AgreementSignal fires when the champion V12 model's own number agrees
// with this candidate's direction by a clear margin.
type V12AgreementSignal struct{}

func (s *V12AgreementSignal) Tag() string { return TagV12Agreement }

func (s *V12AgreementSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, supplemental models.Supplemental) models.SignalResult {
	v12, ok := block(supplemental, BlockV12Prediction)
	if !ok {
		return noQualify(TagV12Agreement)
	}
	predicted, ok := v12["predicted_points"]
	if !ok {
		return noQualify(TagV12Agreement)
	}
	margin := predicted - pred.LineValue
	agrees := (pred.Recommendation == models.DirectionOver && margin >= v12AgreeMargin) ||
		(pred.Recommendation == models.DirectionUnder && margin <= -v12AgreeMargin)
	if !agrees {
		return noQualify(TagV12Agreement)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.7,
		SourceTag:  TagV12Agreement,
		Metadata:   map[string]interface{}{"v12_margin": margin},
	}
}

// RecoveryFadeSignal fires on UNDER picks in a player's first games back
// from an absence, where minutes restrictions depress output.
type RecoveryFadeSignal struct{}

func (s *RecoveryFadeSignal) Tag() string { return TagRecoveryFade }

func (s *RecoveryFadeSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, supplemental models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionUnder {
		return noQualify(TagRecoveryFade)
	}
	recovery, ok := block(supplemental, BlockRecoveryStats)
	if !ok {
		return noQualify(TagRecoveryFade)
	}
	games, ok := recovery["games_since_return"]
	if !ok || int(games) > recoveryGamesMax {
		return noQualify(TagRecoveryFade)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.6,
		SourceTag:  TagRecoveryFade,
		Metadata:   map[string]interface{}{"games_since_return": int(games)},
	}
}

// HighQualityDataSignal fires when the feature pipeline reports
// near-complete inputs for this candidate.
type HighQualityDataSignal struct{}

func (s *HighQualityDataSignal) Tag() string { return TagHighQualityData }

func (s *HighQualityDataSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, _ models.Supplemental) models.SignalResult {
	if pred.FeatureQualityScore < qualityEliteMin {
		return noQualify(TagHighQualityData)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.5,
		SourceTag:  TagHighQualityData,
		Metadata:   map[string]interface{}{"feature_quality_score": pred.FeatureQualityScore},
	}
}

// HomeStarOverSignal fires on home-court OVER picks for star-tier lines
// with a meaningful edge.
type HomeStarOverSignal struct{}

func (s *HomeStarOverSignal) Tag() string { return TagHomeStarOver }

func (s *HomeStarOverSignal) Evaluate(pred models.PredictionRecord, _ models.FeatureMap, _ models.Supplemental) models.SignalResult {
	if pred.Recommendation != models.DirectionOver || !pred.IsHome || !pred.IsStar() {
		return noQualify(TagHomeStarOver)
	}
	if pred.Edge < homeStarEdgeMin {
		return noQualify(TagHomeStarOver)
	}
	return models.SignalResult{
		Qualifies:  true,
		Confidence: 0.6,
		SourceTag:  TagHomeStarOver,
		Metadata:   map[string]interface{}{"line_value": pred.LineValue},
	}
}

package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdesk/bestbets/internal/models"
)

func overPrediction(edge float64) models.PredictionRecord {
	return models.PredictionRecord{
		PlayerLookup:   "test_player",
		GameID:         "20260115_LAL_BOS",
		Recommendation: models.DirectionOver,
		LineValue:      20.0,
		Edge:           edge,
	}
}

func underPrediction(edge float64) models.PredictionRecord {
	pred := overPrediction(edge)
	pred.Recommendation = models.DirectionUnder
	return pred
}

func TestHighEdgeThresholdAndConfidence(t *testing.T) {
	sig := &HighEdgeSignal{}

	assert.False(t, sig.Evaluate(overPrediction(4.9), nil, nil).Qualifies)

	res := sig.Evaluate(overPrediction(5.0), nil, nil)
	require.True(t, res.Qualifies)
	assert.InDelta(t, 0.5, res.Confidence, 0.001)

	// UNDER edges count by magnitude.
	res = sig.Evaluate(underPrediction(-8.0), nil, nil)
	require.True(t, res.Qualifies)
	assert.InDelta(t, 1.0, res.Confidence, 0.001)
}

func TestExtremeEdgeThreshold(t *testing.T) {
	sig := &ExtremeEdgeSignal{}
	assert.False(t, sig.Evaluate(overPrediction(7.9), nil, nil).Qualifies)
	assert.True(t, sig.Evaluate(overPrediction(8.0), nil, nil).Qualifies)
	assert.True(t, sig.Evaluate(underPrediction(-9.2), nil, nil).Qualifies)
}

func TestBackToBackFatigueRequiresUnderAndZeroRest(t *testing.T) {
	sig := &BackToBackFatigueSignal{}
	rested := models.Supplemental{BlockRestStats: {"days_rest": 2}}
	b2b := models.Supplemental{BlockRestStats: {"days_rest": 0}}

	assert.False(t, sig.Evaluate(overPrediction(5.0), nil, b2b).Qualifies)
	assert.False(t, sig.Evaluate(underPrediction(-5.0), nil, rested).Qualifies)
	assert.False(t, sig.Evaluate(underPrediction(-5.0), nil, nil).Qualifies)
	assert.True(t, sig.Evaluate(underPrediction(-5.0), nil, b2b).Qualifies)
}

func TestThreePtBounceBackNeedsCapableShooterInSlump(t *testing.T) {
	sig := &ThreePtBounceBackSignal{}

	slumping := models.Supplemental{BlockThreePtStats: {"season_pct": 38.0, "last3_pct": 25.0}}
	res := sig.Evaluate(overPrediction(5.0), nil, slumping)
	assert.True(t, res.Qualifies)

	poorShooter := models.Supplemental{BlockThreePtStats: {"season_pct": 30.0, "last3_pct": 15.0}}
	assert.False(t, sig.Evaluate(overPrediction(5.0), nil, poorShooter).Qualifies)

	shallowSlump := models.Supplemental{BlockThreePtStats: {"season_pct": 38.0, "last3_pct": 33.0}}
	assert.False(t, sig.Evaluate(overPrediction(5.0), nil, shallowSlump).Qualifies)
}

func TestStreakSignalsMirrorEachOther(t *testing.T) {
	hot := &HotStreakOverSignal{}
	cold := &ColdStreakUnderSignal{}
	supp := models.Supplemental{BlockStreakStats: {"consecutive_overs": 4, "consecutive_unders": 3}}

	assert.True(t, hot.Evaluate(overPrediction(4.0), nil, supp).Qualifies)
	assert.False(t, hot.Evaluate(underPrediction(-4.0), nil, supp).Qualifies)
	assert.True(t, cold.Evaluate(underPrediction(-4.0), nil, supp).Qualifies)

	short := models.Supplemental{BlockStreakStats: {"consecutive_overs": 2, "consecutive_unders": 2}}
	assert.False(t, hot.Evaluate(overPrediction(4.0), nil, short).Qualifies)
	assert.False(t, cold.Evaluate(underPrediction(-4.0), nil, short).Qualifies)
}

func TestBookConsensusNeedsTightMultiBookCluster(t *testing.T) {
	sig := &BookConsensusSignal{}

	tight := models.Supplemental{BlockBookStats: {"line_std": 0.3, "num_books": 5}}
	assert.True(t, sig.Evaluate(overPrediction(4.0), nil, tight).Qualifies)

	loose := models.Supplemental{BlockBookStats: {"line_std": 1.2, "num_books": 5}}
	assert.False(t, sig.Evaluate(overPrediction(4.0), nil, loose).Qualifies)

	thin := models.Supplemental{BlockBookStats: {"line_std": 0.3, "num_books": 2}}
	assert.False(t, sig.Evaluate(overPrediction(4.0), nil, thin).Qualifies)
}

func TestBlowoutRiskReadsFeatureMap(t *testing.T) {
	sig := &BlowoutRiskUnderSignal{}

	assert.True(t, sig.Evaluate(underPrediction(-4.0), models.FeatureMap{"vegas_spread": -13.5}, nil).Qualifies)
	assert.False(t, sig.Evaluate(underPrediction(-4.0), models.FeatureMap{"vegas_spread": 6.0}, nil).Qualifies)
	assert.False(t, sig.Evaluate(underPrediction(-4.0), nil, nil).Qualifies)
}

func TestV12AgreementHonorsDirectionAndMargin(t *testing.T) {
	sig := &V12AgreementSignal{}

	bullish := models.Supplemental{BlockV12Prediction: {"predicted_points": 23.0}}
	assert.True(t, sig.Evaluate(overPrediction(4.0), nil, bullish).Qualifies)
	assert.False(t, sig.Evaluate(underPrediction(-4.0), nil, bullish).Qualifies)

	bearish := models.Supplemental{BlockV12Prediction: {"predicted_points": 17.5}}
	assert.True(t, sig.Evaluate(underPrediction(-4.0), nil, bearish).Qualifies)

	narrow := models.Supplemental{BlockV12Prediction: {"predicted_points": 21.0}}
	assert.False(t, sig.Evaluate(overPrediction(4.0), nil, narrow).Qualifies)
}

func TestHomeStarOverRequiresAllThree(t *testing.T) {
	sig := &HomeStarOverSignal{}

	pred := overPrediction(5.0)
	pred.LineValue = 27.5
	pred.IsHome = true
	assert.True(t, sig.Evaluate(pred, nil, nil).Qualifies)

	away := pred
	away.IsHome = false
	assert.False(t, sig.Evaluate(away, nil, nil).Qualifies)

	rolePlayer := pred
	rolePlayer.LineValue = 18.5
	assert.False(t, sig.Evaluate(rolePlayer, nil, nil).Qualifies)

	thinEdge := pred
	thinEdge.Edge = 3.0
	assert.False(t, sig.Evaluate(thinEdge, nil, nil).Qualifies)
}

func TestModelHealthSignalAlwaysQualifies(t *testing.T) {
	sig := &ModelHealthSignal{}

	res := sig.Evaluate(overPrediction(4.0), nil, nil)
	require.True(t, res.Qualifies)
	assert.Equal(t, HealthTierUnknown, res.Metadata["tier"])

	healthy := models.Supplemental{BlockModelHealth: {"hr_30d": 61.0}}
	res = sig.Evaluate(overPrediction(4.0), nil, healthy)
	require.True(t, res.Qualifies)
	assert.Equal(t, HealthTierHealthy, res.Metadata["tier"])

	breakeven := models.Supplemental{BlockModelHealth: {"hr_30d": 50.0}}
	res = sig.Evaluate(overPrediction(4.0), nil, breakeven)
	assert.Equal(t, HealthTierBreakeven, res.Metadata["tier"])
}

func TestDefaultRegistryOrderAndTags(t *testing.T) {
	registry := BuildDefaultRegistry()
	tags := registry.Tags()

	require.Len(t, tags, 19)
	assert.Equal(t, TagHighEdge, tags[0])
	assert.Equal(t, TagModelHealth, tags[len(tags)-1])

	seen := map[string]bool{}
	for _, tag := range tags {
		assert.False(t, seen[tag], "duplicate tag %s", tag)
		seen[tag] = true
	}
}

func TestEvaluateAllToleratesMissingContext(t *testing.T) {
	registry := BuildDefaultRegistry()
	results := registry.EvaluateAll(overPrediction(9.0), nil, nil)

	require.Len(t, results, 19)
	qualifying := QualifyingTags(results)
	// With no context blocks only the record-driven signals can fire:
	// high_edge, extreme_edge, and the always-on model_health.
	assert.Equal(t, []string{TagHighEdge, TagExtremeEdge, TagModelHealth}, qualifying)
}

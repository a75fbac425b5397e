package aggregator

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdesk/bestbets/internal/combo"
	"github.com/propdesk/bestbets/internal/health"
	"github.com/propdesk/bestbets/internal/models"
)

func fixedClock() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

// passingCandidate returns an OVER candidate that clears every filter
// when paired with qualifyingResults(5).
func passingCandidate(player string) models.PredictionRecord {
	return models.PredictionRecord{
		PlayerLookup:        player,
		GameID:              "20260115_LAL_BOS",
		GameDate:            "2026-01-15",
		TeamAbbr:            "LAL",
		OpponentAbbr:        "BOS",
		PredictedPoints:     26.0,
		LineValue:           20.0,
		Recommendation:      models.DirectionOver,
		Edge:                6.0,
		ConfidenceScore:     0.8,
		SystemID:            "catboost_v12",
		SourceModelFamily:   "V12",
		FeatureQualityScore: 95.0,
		IsHome:              true,
		HasVegasFeatures:    true,
	}
}

func qualifyingResults(n int) []models.SignalResult {
	results := make([]models.SignalResult, n)
	for i := range results {
		results[i] = models.SignalResult{
			Qualifies:  true,
			Confidence: 0.6,
			SourceTag:  fmt.Sprintf("signal_%d", i),
		}
	}
	return results
}

func emptySide() SideContext {
	return SideContext{
		Blacklist:       map[string]bool{},
		AffinityBlocked: map[string]bool{},
		SignalHealth:    map[string]health.SignalHealth{},
		Consensus:       map[string]models.ConsensusFactors{},
		ModelHealth:     map[string]health.ModelHealth{},
	}
}

func TestAggregateEndToEndScenario(t *testing.T) {
	lowEdge := passingCandidate("lowedge_player")
	lowEdge.GameID = "20260115_MIA_NYK"
	lowEdge.Edge = 2.5

	winner := passingCandidate("winning_player")

	banned := passingCandidate("banned_player")
	banned.GameID = "20260115_DEN_PHX"
	banned.Edge = 10.0

	side := emptySide()
	side.Blacklist["banned_player"] = true

	agg := New(DefaultConfig(), side, "run-1", fixedClock)
	signalResults := map[string][]models.SignalResult{
		lowEdge.Key(): qualifyingResults(5),
		winner.Key():  qualifyingResults(5),
		banned.Key():  qualifyingResults(5),
	}

	picks, summary := agg.Aggregate([]models.PredictionRecord{lowEdge, winner, banned}, signalResults)

	require.Len(t, picks, 1)
	assert.Equal(t, "winning_player", picks[0].PlayerLookup)
	assert.Equal(t, 1, picks[0].Rank)
	assert.Equal(t, 5, picks[0].SignalCount)
	assert.Equal(t, 1, summary.Rejected[models.ReasonEdgeFloor])
	assert.Equal(t, 1, summary.Rejected[models.ReasonBlacklist])
	assert.Equal(t, 1, summary.PassedFilters)
	assert.Equal(t, 3, summary.TotalCandidates)
}

func TestFilterSummaryAlwaysCarriesFullKeySet(t *testing.T) {
	agg := New(DefaultConfig(), emptySide(), "run-1", fixedClock)

	_, summary := agg.Aggregate(nil, nil)

	require.Len(t, summary.Rejected, len(models.RejectionReasons))
	for _, reason := range models.RejectionReasons {
		count, ok := summary.Rejected[reason]
		require.True(t, ok, "missing reason key %s", reason)
		assert.Equal(t, 0, count)
	}
	assert.Equal(t, 0, summary.TotalCandidates)
	assert.Equal(t, 0, summary.PassedFilters)
}

func TestEdgeAndSignalFloorsHoldForAllPicks(t *testing.T) {
	agg := New(DefaultConfig(), emptySide(), "run-1", fixedClock)

	var preds []models.PredictionRecord
	signalResults := map[string][]models.SignalResult{}
	edges := []float64{1.0, 2.9, 3.5, 4.2, 6.0, 9.5}
	for i, edge := range edges {
		pred := passingCandidate(fmt.Sprintf("player_%d", i))
		pred.GameID = fmt.Sprintf("20260115_G%d", i)
		pred.Edge = edge
		preds = append(preds, pred)
		signalResults[pred.Key()] = qualifyingResults(1 + i)
	}

	picks, _ := agg.Aggregate(preds, signalResults)

	require.NotEmpty(t, picks)
	for _, pick := range picks {
		assert.GreaterOrEqual(t, pick.Edge, MinEdge, "pick %s below edge floor", pick.PlayerLookup)
		assert.GreaterOrEqual(t, pick.SignalCount, MinSignalCount)
	}
	assert.LessOrEqual(t, len(picks), len(preds))
}

func TestRankContiguityAndStableTieBreak(t *testing.T) {
	agg := New(DefaultConfig(), emptySide(), "run-1", fixedClock)

	var preds []models.PredictionRecord
	signalResults := map[string][]models.SignalResult{}
	// Two candidates share an identical score; input order must decide.
	for i, edge := range []float64{6.0, 8.0, 6.0, 7.0} {
		pred := passingCandidate(fmt.Sprintf("tie_%d", i))
		pred.GameID = fmt.Sprintf("20260115_T%d", i)
		pred.Edge = edge
		preds = append(preds, pred)
		signalResults[pred.Key()] = qualifyingResults(4)
	}

	picks, _ := agg.Aggregate(preds, signalResults)

	require.Len(t, picks, 4)
	for i, pick := range picks {
		assert.Equal(t, i+1, pick.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, picks[i-1].CompositeScore, pick.CompositeScore)
		}
	}
	// Equal-score candidates keep input order: tie_0 before tie_2.
	assert.Equal(t, "tie_1", picks[0].PlayerLookup)
	assert.Equal(t, "tie_3", picks[1].PlayerLookup)
	assert.Equal(t, "tie_0", picks[2].PlayerLookup)
	assert.Equal(t, "tie_2", picks[3].PlayerLookup)
}

func TestDeterminismAcrossRuns(t *testing.T) {
	side := emptySide()
	side.Consensus["det_player|20260115_LAL_BOS"] = models.ConsensusFactors{
		MajorityDirection:   models.DirectionOver,
		ModelAgreementCount: 3,
		AgreeingModelIDs:    []string{"a", "b", "c"},
		ConsensusBonus:      0.05,
	}

	pred := passingCandidate("det_player")
	signalResults := map[string][]models.SignalResult{pred.Key(): qualifyingResults(5)}

	agg := New(DefaultConfig(), side, "run-1", fixedClock)
	picks1, summary1 := agg.Aggregate([]models.PredictionRecord{pred}, signalResults)
	picks2, summary2 := agg.Aggregate([]models.PredictionRecord{pred}, signalResults)

	require.True(t, reflect.DeepEqual(picks1, picks2))
	require.True(t, reflect.DeepEqual(summary1, summary2))
}

func TestNaturalSizingVersusCap(t *testing.T) {
	var preds []models.PredictionRecord
	signalResults := map[string][]models.SignalResult{}
	for i := 0; i < 8; i++ {
		pred := passingCandidate(fmt.Sprintf("cap_%d", i))
		pred.GameID = fmt.Sprintf("20260115_C%d", i)
		pred.Edge = 4.0 + float64(i)*0.5
		preds = append(preds, pred)
		signalResults[pred.Key()] = qualifyingResults(4)
	}

	natural := DefaultConfig()
	natural.SizingMode = SizingNatural
	picks, _ := New(natural, emptySide(), "run-1", fixedClock).Aggregate(preds, signalResults)
	assert.Len(t, picks, 8)

	capped := DefaultConfig()
	capped.SizingMode = SizingCapped
	capped.MaxPicksPerDay = 3
	picks, _ = New(capped, emptySide(), "run-1", fixedClock).Aggregate(preds, signalResults)
	require.Len(t, picks, 3)
	// Cap applies after full sorting: highest edges survive.
	assert.Equal(t, "cap_7", picks[0].PlayerLookup)
	assert.Equal(t, 1, picks[0].Rank)
	assert.Equal(t, 3, picks[2].Rank)
}

func TestUnderEdgeCeilingWithV12Exemption(t *testing.T) {
	under := passingCandidate("under_player")
	under.Recommendation = models.DirectionUnder
	under.Edge = -7.5
	under.LineValue = 22.0 // starter tier, below star
	under.SourceModelFamily = "V9"
	under.UsageRate = 30.0

	agg := New(DefaultConfig(), emptySide(), "run-1", fixedClock)
	signalResults := map[string][]models.SignalResult{under.Key(): qualifyingResults(5)}

	_, summary := agg.Aggregate([]models.PredictionRecord{under}, signalResults)
	assert.Equal(t, 1, summary.Rejected[models.ReasonUnderEdge7Plus])

	exempt := under
	exempt.SourceModelFamily = "V12"
	picks, summary := agg.Aggregate([]models.PredictionRecord{exempt}, signalResults)
	assert.Zero(t, summary.Rejected[models.ReasonUnderEdge7Plus])
	require.Len(t, picks, 1)
}

func TestMalformedCandidateFailsClosed(t *testing.T) {
	broken := passingCandidate("")
	agg := New(DefaultConfig(), emptySide(), "run-1", fixedClock)

	picks, summary := agg.Aggregate([]models.PredictionRecord{broken}, nil)

	assert.Empty(t, picks)
	assert.Equal(t, 1, summary.Rejected[models.ReasonQualityFloor])
}

func TestBlacklistedPlayersNeverAppear(t *testing.T) {
	side := emptySide()
	side.Blacklist["cold_player"] = true

	agg := New(DefaultConfig(), side, "run-1", fixedClock)
	var preds []models.PredictionRecord
	signalResults := map[string][]models.SignalResult{}
	for i, player := range []string{"cold_player", "fine_player"} {
		pred := passingCandidate(player)
		pred.GameID = fmt.Sprintf("20260115_B%d", i)
		preds = append(preds, pred)
		signalResults[pred.Key()] = qualifyingResults(5)
	}

	picks, summary := agg.Aggregate(preds, signalResults)

	for _, pick := range picks {
		assert.NotEqual(t, "cold_player", pick.PlayerLookup)
	}
	assert.Equal(t, 1, summary.Rejected[models.ReasonBlacklist])
}

func TestDedupPrefersHealthierModelThenLowerSystemID(t *testing.T) {
	side := emptySide()
	side.ModelHealth["model_a"] = health.ModelHealth{SystemID: "model_a", HR30: 60.0, Sample30: 40}
	side.ModelHealth["model_b"] = health.ModelHealth{SystemID: "model_b", HR30: 48.0, Sample30: 40}

	a := passingCandidate("dup_player")
	a.SystemID = "model_a"
	b := passingCandidate("dup_player")
	b.SystemID = "model_b"

	agg := New(DefaultConfig(), side, "run-1", fixedClock)
	deduped := agg.DedupCandidates([]models.PredictionRecord{b, a})
	require.Len(t, deduped, 1)
	assert.Equal(t, "model_a", deduped[0].SystemID)

	// Equal health: lexicographically lower system id wins.
	side.ModelHealth["model_b"] = health.ModelHealth{SystemID: "model_b", HR30: 60.0, Sample30: 40}
	deduped = agg.DedupCandidates([]models.PredictionRecord{b, a})
	require.Len(t, deduped, 1)
	assert.Equal(t, "model_a", deduped[0].SystemID)
}

func TestColdSignalRegimeDownWeights(t *testing.T) {
	pred := passingCandidate("cold_signal_player")
	signalResults := map[string][]models.SignalResult{pred.Key(): qualifyingResults(4)}

	baseline, _ := New(DefaultConfig(), emptySide(), "run-1", fixedClock).
		Aggregate([]models.PredictionRecord{pred}, signalResults)
	require.Len(t, baseline, 1)

	side := emptySide()
	side.SignalHealth["signal_0"] = health.SignalHealth{Tag: "signal_0", Regime: health.RegimeCold}
	weighted, _ := New(DefaultConfig(), side, "run-1", fixedClock).
		Aggregate([]models.PredictionRecord{pred}, signalResults)
	require.Len(t, weighted, 1)

	assert.Less(t, weighted[0].CompositeScore, baseline[0].CompositeScore)
	assert.InDelta(t, baseline[0].CompositeScore*coldSignalPenalty, weighted[0].CompositeScore, 1e-9)
}

func TestConsensusBonusOnlyWhenDirectionsAgree(t *testing.T) {
	pred := passingCandidate("consensus_player")
	signalResults := map[string][]models.SignalResult{pred.Key(): qualifyingResults(4)}

	side := emptySide()
	side.Consensus[pred.Key()] = models.ConsensusFactors{
		MajorityDirection:   models.DirectionUnder, // disagrees with the OVER pick
		ModelAgreementCount: 3,
		ConsensusBonus:      0.05,
	}
	picks, _ := New(DefaultConfig(), side, "run-1", fixedClock).
		Aggregate([]models.PredictionRecord{pred}, signalResults)
	require.Len(t, picks, 1)
	assert.Zero(t, picks[0].ConsensusBonus)
	assert.Zero(t, picks[0].ModelAgreementCount)

	side.Consensus[pred.Key()] = models.ConsensusFactors{
		MajorityDirection:   models.DirectionOver,
		ModelAgreementCount: 3,
		AgreeingModelIDs:    []string{"m1", "m2", "m3"},
		ConsensusBonus:      0.05,
	}
	picks, _ = New(DefaultConfig(), side, "run-1", fixedClock).
		Aggregate([]models.PredictionRecord{pred}, signalResults)
	require.Len(t, picks, 1)
	assert.Equal(t, 0.05, picks[0].ConsensusBonus)
	assert.Equal(t, 3, picks[0].ModelAgreementCount)
}

func TestAntiPatternComboBlocksWhenStatusBlocked(t *testing.T) {
	registry := combo.Registry{
		"signal_0+signal_1": models.ComboEntry{
			ComboID:        "signal_0+signal_1",
			Signals:        []string{"signal_0", "signal_1"},
			Cardinality:    2,
			Classification: models.ComboAntiPattern,
			Status:         models.ComboStatusBlocked,
			ScoreWeight:    0.7,
		},
	}
	side := emptySide()
	side.ComboRegistry = registry

	pred := passingCandidate("anti_player")
	pred.Edge = 6.0
	signalResults := map[string][]models.SignalResult{pred.Key(): qualifyingResults(4)}

	picks, summary := New(DefaultConfig(), side, "run-1", fixedClock).
		Aggregate([]models.PredictionRecord{pred}, signalResults)

	assert.Empty(t, picks)
	assert.Equal(t, 1, summary.Rejected[models.ReasonAntiPattern])
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.SizingMode = "greedy"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.SizingMode = SizingCapped
	cfg.MaxPicksPerDay = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MinEdge = -1
	assert.Error(t, cfg.Validate())
}

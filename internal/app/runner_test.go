package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdesk/bestbets/internal/cache"
	"github.com/propdesk/bestbets/internal/config"
	"github.com/propdesk/bestbets/internal/health"
	"github.com/propdesk/bestbets/internal/models"
)

type stubPredictions struct {
	predictions  []models.PredictionRecord
	supplemental map[string]models.Supplemental
	fetchErr     error
	suppErr      error
}

func (s *stubPredictions) FetchPredictions(context.Context, string) ([]models.PredictionRecord, error) {
	return s.predictions, s.fetchErr
}

func (s *stubPredictions) FetchSupplemental(context.Context, string) (map[string]models.Supplemental, error) {
	return s.supplemental, s.suppErr
}

type stubGraded struct {
	graded []models.GradedPick
}

func (s *stubGraded) LoadGradedPicks(context.Context, string) ([]models.GradedPick, error) {
	return s.graded, nil
}

func (s *stubGraded) LoadPriorModelHealth(context.Context, time.Time) (map[string]health.ModelHealth, error) {
	return map[string]health.ModelHealth{}, nil
}

func (s *stubGraded) LoadPriorSignalRegimes(context.Context, time.Time, int) (map[string][]string, error) {
	return map[string][]string{}, nil
}

type stubCombos struct{}

func (stubCombos) LoadComboEntries(context.Context) ([]models.ComboEntry, error) {
	return nil, errors.New("combo table unavailable")
}

type capturingPicks struct {
	date  string
	picks []models.Pick
	calls int
}

func (c *capturingPicks) WritePicks(_ context.Context, date string, picks []models.Pick) error {
	c.calls++
	c.date = date
	c.picks = picks
	return nil
}

func strongCandidate(player, systemID string) models.PredictionRecord {
	return models.PredictionRecord{
		PlayerLookup:        player,
		GameID:              "20260115_LAL_BOS",
		GameDate:            "2026-01-15",
		TeamAbbr:            "LAL",
		OpponentAbbr:        "BOS",
		PredictedPoints:     29.0,
		LineValue:           20.0,
		Recommendation:      models.DirectionOver,
		Edge:                9.0,
		ConfidenceScore:     0.8,
		SystemID:            systemID,
		SourceModelFamily:   "V12",
		FeatureQualityScore: 96.0,
		IsHome:              true,
		HasVegasFeatures:    true,
	}
}

func TestRunEndToEnd(t *testing.T) {
	// Two models on the same player-game: dedup keeps one, consensus sees
	// both.
	preds := []models.PredictionRecord{
		strongCandidate("star_player", "catboost_v12"),
		strongCandidate("star_player", "xgboost_v9"),
	}
	picksStore := &capturingPicks{}
	runner := NewRunner(config.Default(),
		&stubPredictions{predictions: preds},
		&stubGraded{}, stubCombos{}, picksStore, cache.NewOpponentCache(nil))

	result, err := runner.Run(context.Background(), "2026-01-15", false)

	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "2026-01-15", result.Date)
	require.Len(t, result.Picks, 1)

	pick := result.Picks[0]
	assert.Equal(t, "star_player", pick.PlayerLookup)
	assert.Equal(t, 1, pick.Rank)
	assert.Equal(t, pick.RunID, result.RunID)
	// Edge 9 clears high_edge and extreme_edge; model_health always fires.
	assert.GreaterOrEqual(t, pick.SignalCount, 3)
	// Both models voted OVER with full edge.
	assert.Equal(t, 2, pick.ModelAgreementCount)
	assert.NotEmpty(t, pick.PickAngles)

	require.Equal(t, 1, picksStore.calls)
	assert.Equal(t, "2026-01-15", picksStore.date)
	require.Len(t, picksStore.picks, 1)
}

func TestDryRunSkipsWrite(t *testing.T) {
	picksStore := &capturingPicks{}
	runner := NewRunner(config.Default(),
		&stubPredictions{predictions: []models.PredictionRecord{strongCandidate("star_player", "catboost_v12")}},
		&stubGraded{}, stubCombos{}, picksStore, cache.NewOpponentCache(nil))

	result, err := runner.Run(context.Background(), "2026-01-15", true)

	require.NoError(t, err)
	require.Len(t, result.Picks, 1)
	assert.Zero(t, picksStore.calls)
}

func TestFetchFailureIsFatal(t *testing.T) {
	runner := NewRunner(config.Default(),
		&stubPredictions{fetchErr: errors.New("warehouse down")},
		nil, nil, nil, nil)

	_, err := runner.Run(context.Background(), "2026-01-15", true)
	assert.Error(t, err)
}

func TestSupplementalFailureDegrades(t *testing.T) {
	runner := NewRunner(config.Default(),
		&stubPredictions{
			predictions: []models.PredictionRecord{strongCandidate("star_player", "catboost_v12")},
			suppErr:     errors.New("context table unavailable"),
		},
		nil, nil, nil, nil)

	result, err := runner.Run(context.Background(), "2026-01-15", true)

	require.NoError(t, err)
	assert.Len(t, result.Picks, 1)
}

func TestInvalidDateRejected(t *testing.T) {
	runner := NewRunner(config.Default(),
		&stubPredictions{}, nil, nil, nil, nil)

	_, err := runner.Run(context.Background(), "15-01-2026", true)
	assert.Error(t, err)
}

func TestEmptySlateProducesEmptySummary(t *testing.T) {
	runner := NewRunner(config.Default(),
		&stubPredictions{}, nil, nil, nil, nil)

	result, err := runner.Run(context.Background(), "2026-01-15", true)

	require.NoError(t, err)
	assert.Empty(t, result.Picks)
	assert.Equal(t, 0, result.Summary.TotalCandidates)
	require.Len(t, result.Summary.Rejected, len(models.RejectionReasons))
}

package warehouse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdesk/bestbets/internal/models"
)

type countingRepo struct {
	calls int
	err   error
}

func (r *countingRepo) FetchPredictions(context.Context, string) ([]models.PredictionRecord, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []models.PredictionRecord{{PlayerLookup: "star_player"}}, nil
}

func (r *countingRepo) FetchSupplemental(context.Context, string) (map[string]models.Supplemental, error) {
	r.calls++
	return map[string]models.Supplemental{}, r.err
}

func TestGuardedPredictionsPassThrough(t *testing.T) {
	inner := &countingRepo{}
	guarded := NewGuardedPredictions(inner)

	preds, err := guarded.FetchPredictions(context.Background(), "2026-01-15")
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, 1, inner.calls)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &countingRepo{err: errors.New("warehouse down")}
	guarded := NewGuardedPredictions(inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := guarded.FetchPredictions(ctx, "2026-01-15")
		require.Error(t, err)
	}
	require.Equal(t, 3, inner.calls)

	// Breaker is open: the next call short-circuits without touching the
	// warehouse.
	_, err := guarded.FetchPredictions(ctx, "2026-01-15")
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestRateLimiterHonorsCancelledContext(t *testing.T) {
	inner := &countingRepo{}
	guarded := NewGuardedPredictions(inner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := guarded.FetchSupplemental(ctx, "2026-01-15")
	assert.Error(t, err)
	assert.Equal(t, 0, inner.calls)
}

package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/propdesk/bestbets/internal/models"
)

// GuardedPredictions wraps a PredictionsRepo with a circuit breaker and a
// rate limiter. The breaker keeps a flapping warehouse from stalling
// hourly re-runs; the limiter keeps backfill loops from hammering it.
type GuardedPredictions struct {
	inner   PredictionsRepo
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewGuardedPredictions builds the wrapper with production breaker
// settings: trip after 3 consecutive failures or a 5% failure rate over
// at least 20 requests.
func NewGuardedPredictions(inner PredictionsRepo) *GuardedPredictions {
	settings := gobreaker.Settings{Name: "warehouse-predictions"}
	settings.Interval = 60 * time.Second
	settings.Timeout = 60 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
	}

	return &GuardedPredictions{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Every(time.Second), 4),
	}
}

func (g *GuardedPredictions) FetchPredictions(ctx context.Context, date string) ([]models.PredictionRecord, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.FetchPredictions(ctx, date)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.PredictionRecord), nil
}

func (g *GuardedPredictions) FetchSupplemental(ctx context.Context, date string) (map[string]models.Supplemental, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.FetchSupplemental(ctx, date)
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]models.Supplemental), nil
}

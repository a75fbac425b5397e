// Package warehouse defines the storage contracts the pipeline consumes.
// The postgres subpackage provides the production implementation.
package warehouse

import (
	"context"
	"time"

	"github.com/propdesk/bestbets/internal/health"
	"github.com/propdesk/bestbets/internal/models"
)

// PredictionsRepo supplies the day's candidate set and per-player
// supplemental context. Failure here is fatal to a run: there is nothing
// to aggregate without it.
type PredictionsRepo interface {
	FetchPredictions(ctx context.Context, date string) ([]models.PredictionRecord, error)
	FetchSupplemental(ctx context.Context, date string) (map[string]models.Supplemental, error)
}

// GradedRepo supplies graded season-to-date history plus the stored
// health rows that feed the hysteresis counters.
type GradedRepo interface {
	LoadGradedPicks(ctx context.Context, season string) ([]models.GradedPick, error)
	LoadPriorModelHealth(ctx context.Context, asOf time.Time) (map[string]health.ModelHealth, error)
	LoadPriorSignalRegimes(ctx context.Context, asOf time.Time, lookbackDays int) (map[string][]string, error)
}

// ComboRepo loads the validated combo registry rows.
type ComboRepo interface {
	LoadComboEntries(ctx context.Context) ([]models.ComboEntry, error)
}

// PicksRepo persists the day's output. WritePicks is delete-then-insert
// scoped to the date inside a single transaction, so re-running a date
// replaces rather than duplicates. Safe under at-most-one concurrent
// writer per date.
type PicksRepo interface {
	WritePicks(ctx context.Context, date string, picks []models.Pick) error
}

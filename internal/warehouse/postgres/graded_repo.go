package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/propdesk/bestbets/internal/health"
	"github.com/propdesk/bestbets/internal/models"
	"github.com/propdesk/bestbets/internal/warehouse"
)

// gradedRepo implements warehouse.GradedRepo on PostgreSQL.
type gradedRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewGradedRepo creates a PostgreSQL graded-history repository.
func NewGradedRepo(db *sqlx.DB, timeout time.Duration) warehouse.GradedRepo {
	return &gradedRepo{db: db, timeout: timeout}
}

func (r *gradedRepo) LoadGradedPicks(ctx context.Context, season string) ([]models.GradedPick, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT player_lookup, game_date, system_id, source_model_family,
		       recommendation, edge, won, signal_tags
		FROM graded_picks
		WHERE season = $1
		ORDER BY game_date`

	rows, err := r.db.QueryxContext(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to load graded picks for season %s: %w", season, err)
	}
	defer rows.Close()

	var graded []models.GradedPick
	for rows.Next() {
		var g models.GradedPick
		var tags pq.StringArray
		if err := rows.Scan(&g.PlayerLookup, &g.GameDate, &g.SystemID, &g.SourceModelFamily,
			&g.Recommendation, &g.Edge, &g.Won, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan graded pick: %w", err)
		}
		g.SignalTags = []string(tags)
		graded = append(graded, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating graded picks: %w", err)
	}
	return graded, nil
}

func (r *gradedRepo) LoadPriorModelHealth(ctx context.Context, asOf time.Time) (map[string]health.ModelHealth, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT system_id, hr_7d, hr_14d, hr_30d, hr_season, sample_30d,
		       state, consecutive_bad_days, consecutive_good_days
		FROM model_health_daily
		WHERE as_of = (SELECT MAX(as_of) FROM model_health_daily WHERE as_of < $1)`

	rows, err := r.db.QueryxContext(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior model health: %w", err)
	}
	defer rows.Close()

	out := make(map[string]health.ModelHealth)
	for rows.Next() {
		var mh health.ModelHealth
		if err := rows.Scan(&mh.SystemID, &mh.HR7, &mh.HR14, &mh.HR30, &mh.HRSeason,
			&mh.Sample30, &mh.State, &mh.ConsecutiveBad, &mh.ConsecutiveGood); err != nil {
			return nil, fmt.Errorf("failed to scan model health row: %w", err)
		}
		out[mh.SystemID] = mh
	}
	return out, rows.Err()
}

func (r *gradedRepo) LoadPriorSignalRegimes(ctx context.Context, asOf time.Time, lookbackDays int) (map[string][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT tag, regime
		FROM signal_health_daily
		WHERE as_of < $1 AND as_of >= $2
		ORDER BY tag, as_of DESC`

	from := asOf.AddDate(0, 0, -lookbackDays)
	rows, err := r.db.QueryxContext(ctx, query, asOf, from)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior signal regimes: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var tag, regime string
		if err := rows.Scan(&tag, &regime); err != nil {
			return nil, fmt.Errorf("failed to scan signal regime row: %w", err)
		}
		out[tag] = append(out[tag], regime)
	}
	return out, rows.Err()
}

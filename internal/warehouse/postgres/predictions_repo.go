package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/propdesk/bestbets/internal/models"
	"github.com/propdesk/bestbets/internal/warehouse"
)

// predictionsRepo implements warehouse.PredictionsRepo on PostgreSQL.
type predictionsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPredictionsRepo creates a PostgreSQL predictions repository.
func NewPredictionsRepo(db *sqlx.DB, timeout time.Duration) warehouse.PredictionsRepo {
	return &predictionsRepo{db: db, timeout: timeout}
}

func (r *predictionsRepo) FetchPredictions(ctx context.Context, date string) ([]models.PredictionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT player_lookup, game_id, game_date, team_abbr, opponent_abbr,
		       predicted_points, line_value, recommendation, edge,
		       confidence_score, system_id, source_model_family,
		       feature_quality_score, games_vs_opponent, prop_line_delta,
		       neg_pm_streak, teammate_usage_available, star_teammates_out,
		       is_home, has_vegas_features, opponent_stars_out,
		       book_line_std, usage_rate
		FROM model_predictions
		WHERE game_date = $1
		ORDER BY player_lookup, game_id, system_id`

	var predictions []models.PredictionRecord
	if err := r.db.SelectContext(ctx, &predictions, query, date); err != nil {
		return nil, fmt.Errorf("failed to fetch predictions for %s: %w", date, err)
	}
	return predictions, nil
}

func (r *predictionsRepo) FetchSupplemental(ctx context.Context, date string) (map[string]models.Supplemental, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT player_lookup, block_name, stat_key, stat_value
		FROM player_context_blocks
		WHERE game_date = $1`

	rows, err := r.db.QueryxContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch supplemental context for %s: %w", date, err)
	}
	defer rows.Close()

	out := make(map[string]models.Supplemental)
	for rows.Next() {
		var player, blockName, statKey string
		var statValue float64
		if err := rows.Scan(&player, &blockName, &statKey, &statValue); err != nil {
			return nil, fmt.Errorf("failed to scan supplemental row: %w", err)
		}
		supp, ok := out[player]
		if !ok {
			supp = make(models.Supplemental)
			out[player] = supp
		}
		block, ok := supp[blockName]
		if !ok {
			block = make(models.Block)
			supp[blockName] = block
		}
		block[statKey] = statValue
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supplemental rows: %w", err)
	}
	return out, nil
}

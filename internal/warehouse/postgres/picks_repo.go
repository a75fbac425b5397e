package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/propdesk/bestbets/internal/models"
	"github.com/propdesk/bestbets/internal/warehouse"
)

// picksRepo implements warehouse.PicksRepo on PostgreSQL.
type picksRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPicksRepo creates a PostgreSQL picks repository.
func NewPicksRepo(db *sqlx.DB, timeout time.Duration) warehouse.PicksRepo {
	return &picksRepo{db: db, timeout: timeout}
}

// WritePicks replaces the date's rows inside one transaction. The delete
// and insert are not atomic toward a second concurrent writer for the
// same date; callers own per-date mutual exclusion.
func (r *picksRepo) WritePicks(ctx context.Context, date string, picks []models.Pick) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin picks transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM best_bets WHERE game_date = $1`, date); err != nil {
		return fmt.Errorf("failed to clear picks for %s: %w", date, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO best_bets (
			game_date, player_lookup, game_id, team_abbr, opponent_abbr,
			predicted_points, line_value, recommendation, edge,
			confidence_score, system_id, source_model_family,
			signal_tags, signal_count, composite_score, rank,
			matched_combo_id, combo_classification, combo_hit_rate,
			warning_tags, model_agreement_count, agreeing_model_ids,
			consensus_bonus, pick_angles, run_id, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)`)
	if err != nil {
		return fmt.Errorf("failed to prepare picks insert: %w", err)
	}
	defer stmt.Close()

	for _, pick := range picks {
		_, err := stmt.ExecContext(ctx,
			date, pick.PlayerLookup, pick.GameID, pick.TeamAbbr, pick.OpponentAbbr,
			pick.PredictedPoints, pick.LineValue, pick.Recommendation, pick.Edge,
			pick.ConfidenceScore, pick.SystemID, pick.SourceModelFamily,
			pq.StringArray(pick.SignalTags), pick.SignalCount, pick.CompositeScore, pick.Rank,
			pick.MatchedComboID, pick.ComboClassification, pick.ComboHitRate,
			pq.StringArray(pick.WarningTags), pick.ModelAgreementCount,
			pq.StringArray(pick.AgreeingModelIDs), pick.ConsensusBonus,
			pq.StringArray(pick.PickAngles), pick.RunID, pick.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert pick %s: %w", pick.Key(), err)
		}
	}

	return tx.Commit()
}

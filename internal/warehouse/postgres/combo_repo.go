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

// comboRepo implements warehouse.ComboRepo on PostgreSQL.
type comboRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewComboRepo creates a PostgreSQL combo repository.
func NewComboRepo(db *sqlx.DB, timeout time.Duration) warehouse.ComboRepo {
	return &comboRepo{db: db, timeout: timeout}
}

func (r *comboRepo) LoadComboEntries(ctx context.Context) ([]models.ComboEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT combo_id, signals, cardinality, classification, status,
		       COALESCE(direction_filter, ''), hit_rate, roi, sample_size, score_weight
		FROM signal_combos
		WHERE status != 'RETIRED'
		ORDER BY combo_id`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load combo entries: %w", err)
	}
	defer rows.Close()

	var entries []models.ComboEntry
	for rows.Next() {
		var entry models.ComboEntry
		var signals pq.StringArray
		if err := rows.Scan(&entry.ComboID, &signals, &entry.Cardinality,
			&entry.Classification, &entry.Status, &entry.DirectionFilter,
			&entry.HitRate, &entry.ROI, &entry.SampleSize, &entry.ScoreWeight); err != nil {
			return nil, fmt.Errorf("failed to scan combo entry: %w", err)
		}
		entry.Signals = []string(signals)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating combo entries: %w", err)
	}
	return entries, nil
}

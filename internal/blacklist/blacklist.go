// Package blacklist flags chronically-losing players from graded history.
package blacklist

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/propdesk/bestbets/internal/models"
)

// Defaults for the season-to-date blacklist.
const (
	DefaultMinPicks    = 8
	DefaultHRThreshold = 40.0
)

// Config controls blacklist computation.
type Config struct {
	MinPicks    int     `yaml:"min_picks"`
	HRThreshold float64 `yaml:"hr_threshold"`
}

// DefaultConfig returns production blacklist settings.
func DefaultConfig() Config {
	return Config{
		MinPicks:    DefaultMinPicks,
		HRThreshold: DefaultHRThreshold,
	}
}

// Store supplies graded season-to-date history.
type Store interface {
	LoadGradedPicks(ctx context.Context, season string) ([]models.GradedPick, error)
}

// Compute groups graded picks by player and flags those with a hit rate
// strictly below the threshold given at least MinPicks samples. A player
// sitting exactly on the threshold is NOT blacklisted.
func Compute(graded []models.GradedPick, cfg Config) map[string]bool {
	type record struct {
		total int
		wins  int
	}
	byPlayer := make(map[string]*record)
	for _, g := range graded {
		rec, ok := byPlayer[g.PlayerLookup]
		if !ok {
			rec = &record{}
			byPlayer[g.PlayerLookup] = rec
		}
		rec.total++
		if g.Won {
			rec.wins++
		}
	}

	blocked := make(map[string]bool)
	for player, rec := range byPlayer {
		if rec.total < cfg.MinPicks {
			continue
		}
		hr := 100.0 * float64(rec.wins) / float64(rec.total)
		if hr < cfg.HRThreshold {
			blocked[player] = true
		}
	}
	return blocked
}

// Load fetches graded history and computes the blacklist. On any failure
// it logs a warning and returns an empty set; it never propagates the
// error to the aggregator.
func Load(ctx context.Context, store Store, season string, cfg Config) map[string]bool {
	if store == nil {
		return map[string]bool{}
	}
	graded, err := store.LoadGradedPicks(ctx, season)
	if err != nil {
		log.Warn().Err(err).Str("season", season).Msg("Blacklist load failed, proceeding with empty set")
		return map[string]bool{}
	}
	blocked := Compute(graded, cfg)
	log.Info().Int("blacklisted_players", len(blocked)).Msg("Player blacklist computed")
	return blocked
}

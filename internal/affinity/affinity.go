// Package affinity tracks hit rates per (affinity group, direction, edge
// band) and produces the block set consumed by the aggregator's
// model-direction filter.
package affinity

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/propdesk/bestbets/internal/models"
)

// Affinity groups collapse model-family variants into behavioral buckets.
const (
	GroupV9       = "V9"
	GroupV12NoVeg = "V12_NOVEG"
	GroupV12Veg   = "V12_VEG"
)

// Edge bands.
const (
	BandLow  = "3-5"
	BandMid  = "5-7"
	BandHigh = "7+"
)

// Two-phase rollout: the block threshold ships at ObservationThreshold
// (nothing blocked, "would block" logged only) and must be raised to
// ActiveThreshold to start real blocking. Keep the phase switch here, as
// one named value, rather than inferring it from call sites.
const (
	ObservationThreshold = 0.0
	ActiveThreshold      = 45.0
)

// DefaultMinSampleSize excludes thin combos from the output entirely.
const DefaultMinSampleSize = 15

// Config controls affinity computation.
type Config struct {
	MinSampleSize    int     `yaml:"min_sample_size"`
	BlockThresholdHR float64 `yaml:"block_threshold_hr"`
}

// DefaultConfig returns observation-mode settings.
func DefaultConfig() Config {
	return Config{
		MinSampleSize:    DefaultMinSampleSize,
		BlockThresholdHR: ObservationThreshold,
	}
}

// Stats holds the graded record for one combo.
type Stats struct {
	HitRate float64 `json:"hit_rate"`
	N       int     `json:"n"`
}

// Result is the provider output: per-combo stats, the active block set,
// and the observation-mode diagnostic of what a 45% threshold would
// block today.
type Result struct {
	Stats          map[string]Stats `json:"stats"`
	Blocked        map[string]bool  `json:"blocked"`
	WouldBlockAt45 []string         `json:"would_block_at_45"`
}

// EmptyResult is the neutral default used when history is unavailable.
func EmptyResult() Result {
	return Result{
		Stats:   map[string]Stats{},
		Blocked: map[string]bool{},
	}
}

// Store supplies graded history.
type Store interface {
	LoadGradedPicks(ctx context.Context, season string) ([]models.GradedPick, error)
}

// GroupFor maps a source model family to its affinity group. Unknown
// families fold into V9, the oldest bucket.
func GroupFor(modelFamily string, hasVegasFeatures bool) string {
	family := strings.ToUpper(modelFamily)
	if strings.HasPrefix(family, "V12") {
		if hasVegasFeatures {
			return GroupV12Veg
		}
		return GroupV12NoVeg
	}
	return GroupV9
}

// BandFor returns the edge band for an absolute edge. Edges below the
// low band floor have no band; callers gate on |edge| >= 3 first.
func BandFor(absEdge float64) string {
	switch {
	case absEdge >= 7.0:
		return BandHigh
	case absEdge >= 5.0:
		return BandMid
	default:
		return BandLow
	}
}

// Key builds the canonical combo key.
func Key(group, direction, band string) string {
	return group + "|" + direction + "|" + band
}

// Compute groups graded history by (group, direction, band). Combos below
// MinSampleSize are absent from the output, not flagged. Combos with a
// hit rate strictly below BlockThresholdHR enter the block set; with the
// observation-mode default of 0.0 nothing is ever blocked.
func Compute(graded []models.GradedPick, cfg Config) Result {
	type record struct {
		total int
		wins  int
	}
	byKey := make(map[string]*record)
	for _, g := range graded {
		absEdge := math.Abs(g.Edge)
		if absEdge < 3.0 {
			continue
		}
		family := strings.ToUpper(g.SourceModelFamily)
		hasVegas := strings.Contains(family, "VEG") && !strings.Contains(family, "NOVEG")
		group := GroupFor(g.SourceModelFamily, hasVegas)
		key := Key(group, g.Recommendation, BandFor(absEdge))
		rec, ok := byKey[key]
		if !ok {
			rec = &record{}
			byKey[key] = rec
		}
		rec.total++
		if g.Won {
			rec.wins++
		}
	}

	result := Result{
		Stats:   make(map[string]Stats),
		Blocked: make(map[string]bool),
	}
	for key, rec := range byKey {
		if rec.total < cfg.MinSampleSize {
			continue
		}
		hr := 100.0 * float64(rec.wins) / float64(rec.total)
		result.Stats[key] = Stats{HitRate: hr, N: rec.total}
		if hr < cfg.BlockThresholdHR {
			result.Blocked[key] = true
		}
		if hr < ActiveThreshold {
			result.WouldBlockAt45 = append(result.WouldBlockAt45, key)
		}
	}
	sort.Strings(result.WouldBlockAt45)
	return result
}

// Load fetches graded history and computes affinity stats. On any failure
// it logs a warning and returns the neutral empty result.
func Load(ctx context.Context, store Store, season string, cfg Config) Result {
	if store == nil {
		return EmptyResult()
	}
	graded, err := store.LoadGradedPicks(ctx, season)
	if err != nil {
		log.Warn().Err(err).Str("season", season).Msg("Affinity load failed, proceeding with empty result")
		return EmptyResult()
	}
	result := Compute(graded, cfg)
	if len(result.WouldBlockAt45) > 0 && cfg.BlockThresholdHR == ObservationThreshold {
		log.Info().Strs("would_block_at_45", result.WouldBlockAt45).
			Msg("Affinity observation mode: combos below 45% HR (not blocked)")
	}
	return result
}

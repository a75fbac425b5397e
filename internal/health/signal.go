package health

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/propdesk/bestbets/internal/models"
)

// Signal regimes.
const (
	RegimeHot    = "HOT"
	RegimeNormal = "NORMAL"
	RegimeCold   = "COLD"
)

// Signal statuses.
const (
	SignalHealthy   = "HEALTHY"
	SignalWatch     = "WATCH"
	SignalDegrading = "DEGRADING"
)

// Regime boundaries: divergence of the 7-day hit rate from the season
// rate, in percentage points.
const (
	coldDivergence  = -10.0
	hotDivergence   = 10.0
	watchDivergence = -5.0
)

// SignalHealth is the per-tag performance record.
type SignalHealth struct {
	Tag            string  `json:"tag"`
	HR7            float64 `json:"hr_7d"`
	HR14           float64 `json:"hr_14d"`
	HR30           float64 `json:"hr_30d"`
	HRSeason       float64 `json:"hr_season"`
	Regime         string  `json:"regime"`
	Status         string  `json:"status"`
	DaysInRegime   int     `json:"days_in_current_regime"`
	ModelDependent bool    `json:"model_dependent"`
}

// ModelDependentTags marks signals whose edge rides on model output
// rather than raw market structure; a COLD regime on these escalates to
// DEGRADING because a sick model poisons them first.
var ModelDependentTags = map[string]bool{
	"high_edge":     true,
	"extreme_edge":  true,
	"v12_agreement": true,
}

// SignalHealthStore supplies graded history and stored prior regimes.
type SignalHealthStore interface {
	LoadGradedPicks(ctx context.Context, season string) ([]models.GradedPick, error)
	// LoadPriorSignalRegimes returns, per tag, the stored regimes of the
	// preceding days in reverse chronological order (yesterday first).
	LoadPriorSignalRegimes(ctx context.Context, asOf time.Time, lookbackDays int) (map[string][]string, error)
}

// regimeLookbackDays bounds the days-in-regime scan.
const regimeLookbackDays = 30

// ComputeSignalHealth derives per-tag hit rates at 7/14/30-day and season
// windows from graded history and classifies each tag's regime.
// priorRegimes feeds the days_in_current_regime counter.
func ComputeSignalHealth(graded []models.GradedPick, asOf time.Time, priorRegimes map[string][]string) map[string]SignalHealth {
	type windows struct {
		w7, w14, w30, season       int
		win7, win14, win30, winSea int
	}
	byTag := make(map[string]*windows)
	for _, g := range graded {
		if g.GameDate.After(asOf) {
			continue
		}
		age := asOf.Sub(g.GameDate)
		for _, tag := range g.SignalTags {
			w, ok := byTag[tag]
			if !ok {
				w = &windows{}
				byTag[tag] = w
			}
			w.season++
			if g.Won {
				w.winSea++
			}
			if age <= 30*24*time.Hour {
				w.w30++
				if g.Won {
					w.win30++
				}
			}
			if age <= 14*24*time.Hour {
				w.w14++
				if g.Won {
					w.win14++
				}
			}
			if age <= 7*24*time.Hour {
				w.w7++
				if g.Won {
					w.win7++
				}
			}
		}
	}

	out := make(map[string]SignalHealth, len(byTag))
	for tag, w := range byTag {
		sh := SignalHealth{
			Tag:            tag,
			HR7:            hitRate(w.win7, w.w7),
			HR14:           hitRate(w.win14, w.w14),
			HR30:           hitRate(w.win30, w.w30),
			HRSeason:       hitRate(w.winSea, w.season),
			ModelDependent: ModelDependentTags[tag],
		}

		divergence := sh.HR7 - sh.HRSeason
		switch {
		case divergence < coldDivergence:
			sh.Regime = RegimeCold
		case divergence > hotDivergence:
			sh.Regime = RegimeHot
		default:
			sh.Regime = RegimeNormal
		}

		switch {
		case sh.Regime == RegimeCold && sh.ModelDependent:
			sh.Status = SignalDegrading
		case divergence < watchDivergence:
			sh.Status = SignalWatch
		default:
			sh.Status = SignalHealthy
		}

		sh.DaysInRegime = 1
		for _, prior := range priorRegimes[tag] {
			if prior != sh.Regime {
				break
			}
			sh.DaysInRegime++
		}

		out[tag] = sh
	}
	return out
}

// LoadSignalHealth fetches history and computes per-tag health. On any
// failure it returns an empty map; unknown tags are treated as NORMAL by
// the aggregator.
func LoadSignalHealth(ctx context.Context, store SignalHealthStore, season string, asOf time.Time) map[string]SignalHealth {
	if store == nil {
		return map[string]SignalHealth{}
	}
	graded, err := store.LoadGradedPicks(ctx, season)
	if err != nil {
		log.Warn().Err(err).Msg("Signal health load failed, proceeding with empty map")
		return map[string]SignalHealth{}
	}
	priorRegimes, err := store.LoadPriorSignalRegimes(ctx, asOf, regimeLookbackDays)
	if err != nil {
		log.Warn().Err(err).Msg("Prior signal regimes unavailable, days-in-regime resets")
		priorRegimes = map[string][]string{}
	}
	return ComputeSignalHealth(graded, asOf, priorRegimes)
}

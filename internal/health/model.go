// Package health classifies model and signal performance regimes from
// graded history. All providers degrade to neutral defaults on failure.
package health

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/propdesk/bestbets/internal/models"
)

// Model health states.
const (
	ModelHealthy          = "HEALTHY"
	ModelWatch            = "WATCH"
	ModelDegrading        = "DEGRADING"
	ModelBlocked          = "BLOCKED"
	ModelInsufficientData = "INSUFFICIENT_DATA"
)

// Model health thresholds and hysteresis spans.
const (
	modelBreakevenHR = 52.4
	modelHealthyHR   = 55.0
	modelMinSample30 = 20

	// Consecutive-day counters gate state transitions so a single bad
	// slate cannot flip a model's state.
	degradeAfterBadDays = 3
	blockAfterBadDays   = 7
	recoverAfterGood    = 3
)

// ModelHealth is the rolling record for one model.
type ModelHealth struct {
	SystemID        string  `json:"system_id"`
	HR7             float64 `json:"hr_7d"`
	HR14            float64 `json:"hr_14d"`
	HR30            float64 `json:"hr_30d"`
	HRSeason        float64 `json:"hr_season"`
	Sample30        int     `json:"sample_30d"`
	State           string  `json:"state"`
	ConsecutiveBad  int     `json:"consecutive_bad_days"`
	ConsecutiveGood int     `json:"consecutive_good_days"`
}

// HealthStore supplies graded history and yesterday's stored health rows.
type HealthStore interface {
	LoadGradedPicks(ctx context.Context, season string) ([]models.GradedPick, error)
	LoadPriorModelHealth(ctx context.Context, asOf time.Time) (map[string]ModelHealth, error)
}

func hitRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100.0 * float64(wins) / float64(total)
}

// ComputeModelHealth derives per-model rolling hit rates as of a date and
// applies the hysteresis state machine against the prior day's record.
func ComputeModelHealth(graded []models.GradedPick, asOf time.Time, prior map[string]ModelHealth) map[string]ModelHealth {
	type windows struct {
		w7, w14, w30, season       int
		win7, win14, win30, winSea int
	}
	byModel := make(map[string]*windows)
	for _, g := range graded {
		if g.GameDate.After(asOf) {
			continue
		}
		w, ok := byModel[g.SystemID]
		if !ok {
			w = &windows{}
			byModel[g.SystemID] = w
		}
		age := asOf.Sub(g.GameDate)
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

	out := make(map[string]ModelHealth, len(byModel))
	for systemID, w := range byModel {
		mh := ModelHealth{
			SystemID: systemID,
			HR7:      hitRate(w.win7, w.w7),
			HR14:     hitRate(w.win14, w.w14),
			HR30:     hitRate(w.win30, w.w30),
			HRSeason: hitRate(w.winSea, w.season),
			Sample30: w.w30,
		}
		prev := prior[systemID]
		mh.applyState(prev)
		out[systemID] = mh
	}
	return out
}

// applyState runs one day of the hysteresis state machine.
func (mh *ModelHealth) applyState(prev ModelHealth) {
	if mh.Sample30 < modelMinSample30 {
		mh.State = ModelInsufficientData
		return
	}

	badDay := mh.HR30 < modelBreakevenHR
	goodDay := mh.HR30 >= modelHealthyHR

	if badDay {
		mh.ConsecutiveBad = prev.ConsecutiveBad + 1
		mh.ConsecutiveGood = 0
	} else if goodDay {
		mh.ConsecutiveGood = prev.ConsecutiveGood + 1
		mh.ConsecutiveBad = 0
	} else {
		// Between breakeven and healthy: counters hold.
		mh.ConsecutiveBad = prev.ConsecutiveBad
		mh.ConsecutiveGood = prev.ConsecutiveGood
	}

	switch {
	case mh.ConsecutiveBad >= blockAfterBadDays:
		mh.State = ModelBlocked
	case mh.ConsecutiveBad >= degradeAfterBadDays:
		mh.State = ModelDegrading
	case badDay:
		mh.State = ModelWatch
	case goodDay && (prev.State == "" || prev.State == ModelHealthy || mh.ConsecutiveGood >= recoverAfterGood):
		mh.State = ModelHealthy
	case goodDay:
		mh.State = ModelWatch
	default:
		mh.State = ModelWatch
	}
}

// LoadModelHealth fetches history and computes health per model. On any
// failure it returns an empty map; callers treat missing models as
// unknown health.
func LoadModelHealth(ctx context.Context, store HealthStore, season string, asOf time.Time) map[string]ModelHealth {
	if store == nil {
		return map[string]ModelHealth{}
	}
	graded, err := store.LoadGradedPicks(ctx, season)
	if err != nil {
		log.Warn().Err(err).Msg("Model health load failed, proceeding with unknown health")
		return map[string]ModelHealth{}
	}
	prior, err := store.LoadPriorModelHealth(ctx, asOf)
	if err != nil {
		log.Warn().Err(err).Msg("Prior model health unavailable, hysteresis counters reset")
		prior = map[string]ModelHealth{}
	}
	return ComputeModelHealth(graded, asOf, prior)
}

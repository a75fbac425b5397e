// Package app orchestrates one aggregation run: fetch, evaluate,
// aggregate, enrich, write. Fetch of the primary candidate set is fatal;
// every side provider degrades to a neutral default.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/propdesk/bestbets/internal/affinity"
	"github.com/propdesk/bestbets/internal/aggregator"
	"github.com/propdesk/bestbets/internal/angles"
	"github.com/propdesk/bestbets/internal/blacklist"
	"github.com/propdesk/bestbets/internal/cache"
	"github.com/propdesk/bestbets/internal/combo"
	"github.com/propdesk/bestbets/internal/config"
	"github.com/propdesk/bestbets/internal/consensus"
	"github.com/propdesk/bestbets/internal/health"
	"github.com/propdesk/bestbets/internal/metrics"
	"github.com/propdesk/bestbets/internal/models"
	"github.com/propdesk/bestbets/internal/signals"
	"github.com/propdesk/bestbets/internal/warehouse"
)

// Runner wires the stores, cache and registry into a runnable pipeline.
type Runner struct {
	cfg         config.Config
	predictions warehouse.PredictionsRepo
	graded      warehouse.GradedRepo
	combos      warehouse.ComboRepo
	picks       warehouse.PicksRepo
	opponents   *cache.OpponentCache
	registry    *signals.Registry
}

// NewRunner assembles a runner. graded, combos and picks may be nil for
// dry runs; predictions must not be.
func NewRunner(cfg config.Config, predictions warehouse.PredictionsRepo, graded warehouse.GradedRepo,
	combos warehouse.ComboRepo, picks warehouse.PicksRepo, opponents *cache.OpponentCache) *Runner {
	return &Runner{
		cfg:         cfg,
		predictions: predictions,
		graded:      graded,
		combos:      combos,
		picks:       picks,
		opponents:   opponents,
		registry:    signals.BuildDefaultRegistry(),
	}
}

// RunResult is the outcome of one run, returned for CLI reporting.
type RunResult struct {
	RunID   string
	Date    string
	Picks   []models.Pick
	Summary models.FilterSummary
}

// Run executes the full pipeline for one date. dryRun skips the final
// write.
func (r *Runner) Run(ctx context.Context, date string, dryRun bool) (*RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RunBudget)
	defer cancel()

	started := time.Now()
	runID := uuid.NewString()
	asOf, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	log.Info().Str("run_id", runID).Str("date", date).Msg("Starting best-bets run")

	// Primary fetch: fatal on failure, there is nothing to aggregate.
	allPredictions, err := r.predictions.FetchPredictions(ctx, date)
	if err != nil {
		metrics.RunFailuresTotal.Inc()
		return nil, fmt.Errorf("failed to fetch predictions for %s: %w", date, err)
	}

	// Supplemental context degrades to empty with a warning.
	supplementalMap, err := r.predictions.FetchSupplemental(ctx, date)
	if err != nil {
		log.Warn().Err(err).Msg("Supplemental fetch failed, signals run without context blocks")
		supplementalMap = map[string]models.Supplemental{}
	}

	side := r.buildSideContext(ctx, asOf, allPredictions)
	agg := aggregator.New(r.cfg.Picks, side, runID, nil)

	// Evaluate signals once per retained candidate; consensus above was
	// computed over the full multi-model set.
	candidates := agg.DedupCandidates(allPredictions)
	r.enrichOpponentCounts(ctx, date, candidates, supplementalMap)
	signalResults := make(map[string][]models.SignalResult, len(candidates))
	for _, pred := range candidates {
		supp := r.candidateSupplemental(pred, supplementalMap, side.ModelHealth)
		features := featureMapFor(supp)
		signalResults[pred.Key()] = r.registry.EvaluateAll(pred, features, supp)
	}

	picks, summary := agg.Aggregate(candidates, signalResults)
	for i := range picks {
		picks[i].PickAngles = angles.Build(picks[i], signalResults[picks[i].Key()])
	}

	metrics.RecordSummary(summary)
	metrics.RunDurationSeconds.Observe(time.Since(started).Seconds())

	if !dryRun && r.picks != nil {
		if err := r.picks.WritePicks(ctx, date, picks); err != nil {
			metrics.RunFailuresTotal.Inc()
			return nil, fmt.Errorf("failed to write picks for %s: %w", date, err)
		}
	}

	log.Info().
		Str("run_id", runID).
		Int("candidates", summary.TotalCandidates).
		Int("picks", summary.PassedFilters).
		Dur("elapsed", time.Since(started)).
		Msg("Best-bets run completed")

	return &RunResult{RunID: runID, Date: date, Picks: picks, Summary: summary}, nil
}

// buildSideContext loads every side provider. Each already degrades to a
// neutral default on failure, so this never aborts the run.
func (r *Runner) buildSideContext(ctx context.Context, asOf time.Time, allPredictions []models.PredictionRecord) aggregator.SideContext {
	var gradedStore warehouse.GradedRepo
	if r.graded != nil {
		gradedStore = r.graded
	}

	side := aggregator.SideContext{
		ComboRegistry: combo.Load(ctx, r.combos),
		Consensus:     consensus.ComputeFactors(allPredictions),
	}
	if gradedStore == nil {
		side.Blacklist = map[string]bool{}
		side.AffinityBlocked = map[string]bool{}
		side.SignalHealth = map[string]health.SignalHealth{}
		side.ModelHealth = map[string]health.ModelHealth{}
		return side
	}

	side.Blacklist = blacklist.Load(ctx, gradedStore, r.cfg.Season, r.cfg.Blacklist)
	side.AffinityBlocked = affinity.Load(ctx, gradedStore, r.cfg.Season, r.cfg.Affinity).Blocked
	side.SignalHealth = health.LoadSignalHealth(ctx, gradedStore, r.cfg.Season, asOf)
	side.ModelHealth = health.LoadModelHealth(ctx, gradedStore, r.cfg.Season, asOf)
	return side
}

// candidateSupplemental returns the player's context blocks with the
// candidate model's health injected, without mutating the shared map.
func (r *Runner) candidateSupplemental(pred models.PredictionRecord,
	supplementalMap map[string]models.Supplemental, modelHealth map[string]health.ModelHealth) models.Supplemental {

	base := supplementalMap[pred.PlayerLookup]
	mh, ok := modelHealth[pred.SystemID]
	if !ok {
		return base
	}
	supp := make(models.Supplemental, len(base)+1)
	for name, block := range base {
		supp[name] = block
	}
	supp[signals.BlockModelHealth] = models.Block{"hr_30d": mh.HR30}
	return supp
}

// enrichOpponentCounts fills missing games-vs-opponent counts from the
// cache, falling back to the matchup_stats block on a miss.
func (r *Runner) enrichOpponentCounts(ctx context.Context, date string,
	candidates []models.PredictionRecord, supplementalMap map[string]models.Supplemental) {

	if r.opponents == nil {
		return
	}
	for i := range candidates {
		pred := &candidates[i]
		if pred.GamesVsOpponent > 0 {
			continue
		}
		if count, ok := r.opponents.Get(ctx, date, pred.PlayerLookup, pred.OpponentAbbr); ok {
			pred.GamesVsOpponent = count
			continue
		}
		if matchup, ok := supplementalMap[pred.PlayerLookup]["matchup_stats"]; ok {
			if games, ok := matchup["games_vs_opponent"]; ok {
				pred.GamesVsOpponent = int(games)
				r.opponents.Set(ctx, date, pred.PlayerLookup, pred.OpponentAbbr, int(games))
			}
		}
	}
}

// featureMapFor extracts the precomputed vegas feature block, which is
// the only block signals consume through the feature-map parameter.
func featureMapFor(supp models.Supplemental) models.FeatureMap {
	if block, ok := supp["vegas_features"]; ok {
		return models.FeatureMap(block)
	}
	return nil
}

// Package aggregator is the central decision engine: it runs every
// candidate through a fixed-order filter stack, scores and ranks the
// survivors, and reports exactly one rejection reason per dropped
// candidate.
package aggregator

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/propdesk/bestbets/internal/combo"
	"github.com/propdesk/bestbets/internal/health"
	"github.com/propdesk/bestbets/internal/models"
	"github.com/propdesk/bestbets/internal/signals"
)

// Scoring constants.
const (
	edgeScoreDivisor   = 10.0
	signalMultStep     = 0.25
	coldSignalPenalty  = 0.92 // applied once per qualifying COLD signal
	unknownModelHR     = 52.4 // breakeven assumed when model health is absent
)

// SideContext bundles every read-only side input. All fields tolerate
// their zero value: the aggregator functions correctly, just less
// precisely, with everything empty. Resolution of provider failures to
// these neutral defaults happens at the call site, never in here.
type SideContext struct {
	ComboRegistry   combo.Registry
	SignalHealth    map[string]health.SignalHealth
	Blacklist       map[string]bool
	AffinityBlocked map[string]bool
	Consensus       map[string]models.ConsensusFactors
	ModelHealth     map[string]health.ModelHealth
}

// Aggregator consumes candidates plus evaluated signal results and
// produces the day's ranked pick list. Context is supplied at
// construction time, never fetched mid-call, so a run is deterministic
// given identical inputs.
type Aggregator struct {
	cfg   Config
	side  SideContext
	runID string
	now   func() time.Time
}

// New builds an aggregator. now may be nil (defaults to time.Now); tests
// inject a fixed clock for byte-identical output.
func New(cfg Config, side SideContext, runID string, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{cfg: cfg, side: side, runID: runID, now: now}
}

// Aggregate runs the full pipeline: dedup, filter stack, scoring,
// ranking, sizing. signalResults is keyed by PredictionRecord.Key().
// It never returns an error: malformed candidates fail closed through
// the normal filter mechanism.
func (a *Aggregator) Aggregate(predictions []models.PredictionRecord, signalResults map[string][]models.SignalResult) ([]models.Pick, models.FilterSummary) {
	summary := models.NewFilterSummary()
	summary.TotalCandidates = len(predictions)

	candidates := a.DedupCandidates(predictions)

	createdAt := a.now().UTC()
	var picks []models.Pick
	for _, pred := range candidates {
		results := signalResults[pred.Key()]
		qualifying := signals.QualifyingTags(results)

		reason, matched, warnings := a.applyFilters(pred, qualifying)
		if reason != "" {
			summary.Rejected[reason]++
			continue
		}

		pick := a.score(pred, qualifying, matched, warnings)
		pick.RunID = a.runID
		pick.CreatedAt = createdAt
		picks = append(picks, pick)
	}
	summary.PassedFilters = len(picks)

	// Stable sort keeps equal-score candidates in input order, which
	// makes rank assignment reproducible across runs.
	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].CompositeScore > picks[j].CompositeScore
	})

	if a.cfg.SizingMode == SizingCapped && len(picks) > a.cfg.MaxPicksPerDay {
		picks = picks[:a.cfg.MaxPicksPerDay]
	}
	for i := range picks {
		picks[i].Rank = i + 1
	}

	log.Info().
		Int("candidates", summary.TotalCandidates).
		Int("picks", len(picks)).
		Str("sizing_mode", a.cfg.SizingMode).
		Msg("Aggregation completed")

	return picks, summary
}

// DedupCandidates retains one candidate per (player, game): highest
// HR-weighted edge first, model id ascending as the final deterministic
// tiebreak. Idempotent, and a no-op when dedup is disabled; callers that
// need the surviving set before Aggregate (e.g. to evaluate signals once
// per retained candidate) may call it directly.
func (a *Aggregator) DedupCandidates(predictions []models.PredictionRecord) []models.PredictionRecord {
	if !a.cfg.MultiModelDedup {
		return predictions
	}
	best := make(map[string]models.PredictionRecord, len(predictions))
	order := make([]string, 0, len(predictions))
	for _, pred := range predictions {
		key := pred.Key()
		current, seen := best[key]
		if !seen {
			best[key] = pred
			order = append(order, key)
			continue
		}
		if a.hrWeightedEdge(pred) > a.hrWeightedEdge(current) ||
			(a.hrWeightedEdge(pred) == a.hrWeightedEdge(current) && pred.SystemID < current.SystemID) {
			best[key] = pred
		}
	}
	deduped := make([]models.PredictionRecord, 0, len(order))
	for _, key := range order {
		deduped = append(deduped, best[key])
	}
	return deduped
}

func (a *Aggregator) hrWeightedEdge(pred models.PredictionRecord) float64 {
	hr := unknownModelHR
	if mh, ok := a.side.ModelHealth[pred.SystemID]; ok && mh.Sample30 > 0 {
		hr = mh.HR30
	}
	return math.Abs(pred.Edge) * hr / 100.0
}

// applyFilters walks the fixed filter order and returns the first failing
// reason, the applicable combo match (if any), and accumulated warning
// tags. An empty reason means the candidate passed everything.
func (a *Aggregator) applyFilters(pred models.PredictionRecord, qualifying []string) (string, *models.ComboEntry, []string) {
	cfg := a.cfg
	absEdge := math.Abs(pred.Edge)
	isOver := pred.Recommendation == models.DirectionOver
	isUnder := pred.Recommendation == models.DirectionUnder

	// Malformed candidates fail closed via the quality gate rather than
	// crashing the batch.
	if pred.PlayerLookup == "" || pred.GameID == "" || (!isOver && !isUnder) {
		return models.ReasonQualityFloor, nil, nil
	}

	if a.side.Blacklist[pred.PlayerLookup] {
		return models.ReasonBlacklist, nil, nil
	}
	if absEdge < cfg.MinEdge {
		return models.ReasonEdgeFloor, nil, nil
	}
	if isUnder && absEdge >= cfg.UnderEdgeCeiling && !cfg.underCeilingExempt(pred.SourceModelFamily) {
		return models.ReasonUnderEdge7Plus, nil, nil
	}
	if isOver && absEdge < cfg.OverEdgeFloor {
		return models.ReasonOverEdgeFloor, nil, nil
	}
	if pred.GamesVsOpponent >= cfg.FamiliarMatchupMax {
		return models.ReasonFamiliarMatchup, nil, nil
	}
	if pred.FeatureQualityScore < cfg.MinQualityScore {
		return models.ReasonQualityFloor, nil, nil
	}

	// Market-pattern UNDER blocks.
	if isUnder {
		if pred.LineValue < cfg.BenchUnderLineMax {
			return models.ReasonBenchUnder, nil, nil
		}
		if pred.PropLineDelta >= cfg.LineJumpUnderMin {
			return models.ReasonLineJumpedUnder, nil, nil
		}
		if pred.PropLineDelta <= cfg.LineDropUnderMax {
			return models.ReasonLineDroppedUnder, nil, nil
		}
		if pred.NegPMStreak >= cfg.NegPMStreakMax {
			return models.ReasonNegPMStreak, nil, nil
		}
	}
	if isOver && pred.PropLineDelta <= cfg.LineDropOverMax {
		return models.ReasonLineDroppedOver, nil, nil
	}

	// Signal-count floor: the primary quality gate.
	signalCount := len(qualifying)
	if signalCount < cfg.MinSignalCount {
		return models.ReasonSignalCount, nil, nil
	}
	if isOver && signalCount <= cfg.SC3MaxSignals && absEdge < cfg.SC3EdgeFloor {
		return models.ReasonSC3EdgeFloor, nil, nil
	}
	if isOver && pred.IsStarter() && signalCount < cfg.StarterOverMinSignals {
		return models.ReasonStarterOverSCFloor, nil, nil
	}

	// Narrow empirical blocks, each with its own named reason.
	if isUnder && pred.OpponentStarsOut >= cfg.OpponentDepletedMin {
		return models.ReasonOpponentDepletedUnder, nil, nil
	}
	if isUnder && pred.BookLineStd > cfg.BookStdUnderMax {
		return models.ReasonHighBookStdUnder, nil, nil
	}
	if pred.ConfidenceScore < cfg.MinConfidence {
		return models.ReasonConfidence, nil, nil
	}

	matched := a.matchCombo(pred, qualifying)
	var warnings []string
	if matched != nil && matched.Classification == models.ComboAntiPattern {
		if matched.Status == models.ComboStatusBlocked {
			return models.ReasonAntiPattern, nil, nil
		}
		warnings = append(warnings, "anti_pattern_watch:"+matched.ComboID)
	}

	if len(a.side.AffinityBlocked) > 0 {
		group := affinityGroupFor(pred)
		key := group + "|" + pred.Recommendation + "|" + edgeBandFor(absEdge)
		if a.side.AffinityBlocked[key] {
			return models.ReasonModelDirectionAffinity, nil, nil
		}
	}

	if !pred.IsHome && !pred.HasVegasFeatures {
		return models.ReasonAwayNoVegas, nil, nil
	}
	if isUnder && pred.IsStar() && pred.IsHome {
		return models.ReasonStarUnder, nil, nil
	}
	if isUnder && pred.IsStar() && !pred.IsHome {
		return models.ReasonUnderStarAway, nil, nil
	}
	if isUnder && pred.UsageRate >= cfg.MedUsageUnderLow && pred.UsageRate <= cfg.MedUsageUnderHigh {
		return models.ReasonMedUsageUnder, nil, nil
	}
	if cfg.StarterV12UnderActive && isUnder && pred.IsStarter() &&
		strings.HasPrefix(strings.ToUpper(pred.SourceModelFamily), "V12") {
		return models.ReasonStarterV12Under, nil, nil
	}
	if isUnder && contains(cfg.OpponentUnderBlock, pred.OpponentAbbr) {
		return models.ReasonOpponentUnderBlock, nil, nil
	}
	if signalCount >= cfg.SignalDensityMax {
		return models.ReasonSignalDensity, nil, nil
	}
	if contains(cfg.LegacyBlockedSystems, pred.SystemID) {
		return models.ReasonLegacyBlock, nil, nil
	}

	return "", matched, warnings
}

// matchCombo resolves the combo entry for a candidate, honoring the
// entry's direction filter.
func (a *Aggregator) matchCombo(pred models.PredictionRecord, qualifying []string) *models.ComboEntry {
	matched := combo.Match(qualifying, a.side.ComboRegistry)
	if matched == nil {
		return nil
	}
	switch matched.DirectionFilter {
	case models.ComboOverOnly:
		if pred.Recommendation != models.DirectionOver {
			return nil
		}
	case models.ComboUnderOnly:
		if pred.Recommendation != models.DirectionUnder {
			return nil
		}
	}
	return matched
}

// score computes the composite score and assembles the pick record.
// Base: edge_score * signal multiplier. Adjustments: combo score weight
// (multiplicative), COLD-regime signal penalty (multiplicative per cold
// signal), consensus bonus (additive, already rounded by the scorer).
func (a *Aggregator) score(pred models.PredictionRecord, qualifying []string, matched *models.ComboEntry, warnings []string) models.Pick {
	edgeScore := math.Min(1.0, math.Abs(pred.Edge)/edgeScoreDivisor)
	multiplier := 1.0 + signalMultStep*float64(len(qualifying)-1)
	composite := edgeScore * multiplier

	pick := models.Pick{
		PredictionRecord: pred,
		SignalTags:       qualifying,
		SignalCount:      len(qualifying),
		WarningTags:      warnings,
	}

	if matched != nil {
		if matched.ScoreWeight > 0 {
			composite *= matched.ScoreWeight
		}
		pick.MatchedComboID = matched.ComboID
		pick.ComboClassification = matched.Classification
		pick.ComboHitRate = matched.HitRate
	}

	for _, tag := range qualifying {
		if sh, ok := a.side.SignalHealth[tag]; ok && sh.Regime == health.RegimeCold {
			composite *= coldSignalPenalty
		}
	}

	if factors, ok := a.side.Consensus[pred.Key()]; ok && factors.MajorityDirection == pred.Recommendation {
		composite += factors.ConsensusBonus
		pick.ModelAgreementCount = factors.ModelAgreementCount
		pick.AgreeingModelIDs = factors.AgreeingModelIDs
		pick.ConsensusBonus = factors.ConsensusBonus
	}

	pick.CompositeScore = composite
	return pick
}

// affinityGroupFor mirrors the affinity package's grouping without
// importing it, keeping the aggregator free of provider dependencies.
func affinityGroupFor(pred models.PredictionRecord) string {
	family := strings.ToUpper(pred.SourceModelFamily)
	if strings.HasPrefix(family, "V12") {
		if pred.HasVegasFeatures {
			return "V12_VEG"
		}
		return "V12_NOVEG"
	}
	return "V9"
}

func edgeBandFor(absEdge float64) string {
	switch {
	case absEdge >= 7.0:
		return "7+"
	case absEdge >= 5.0:
		return "5-7"
	default:
		return "3-5"
	}
}

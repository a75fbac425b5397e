package models

// Rejection reason keys. The set is fixed: dashboards and tests assert on
// the exact key set, so every summary carries all keys even at zero.
const (
	ReasonBlacklist              = "blacklist"
	ReasonEdgeFloor              = "edge_floor"
	ReasonOverEdgeFloor          = "over_edge_floor"
	ReasonUnderEdge7Plus         = "under_edge_7plus"
	ReasonFamiliarMatchup        = "familiar_matchup"
	ReasonQualityFloor           = "quality_floor"
	ReasonBenchUnder             = "bench_under"
	ReasonLineJumpedUnder        = "line_jumped_under"
	ReasonLineDroppedUnder       = "line_dropped_under"
	ReasonLineDroppedOver        = "line_dropped_over"
	ReasonNegPMStreak            = "neg_pm_streak"
	ReasonSignalCount            = "signal_count"
	ReasonSC3EdgeFloor           = "sc3_edge_floor"
	ReasonStarterOverSCFloor     = "starter_over_sc_floor"
	ReasonOpponentDepletedUnder  = "opponent_depleted_under"
	ReasonHighBookStdUnder       = "high_book_std_under"
	ReasonConfidence             = "confidence"
	ReasonAntiPattern            = "anti_pattern"
	ReasonModelDirectionAffinity = "model_direction_affinity"
	ReasonAwayNoVegas            = "away_noveg"
	ReasonStarUnder              = "star_under"
	ReasonUnderStarAway          = "under_star_away"
	ReasonMedUsageUnder          = "med_usage_under"
	ReasonStarterV12Under        = "starter_v12_under"
	ReasonOpponentUnderBlock     = "opponent_under_block"
	ReasonSignalDensity          = "signal_density"
	ReasonLegacyBlock            = "legacy_block"
)

// RejectionReasons lists every reason key in filter-stack order.
var RejectionReasons = []string{
	ReasonBlacklist,
	ReasonEdgeFloor,
	ReasonOverEdgeFloor,
	ReasonUnderEdge7Plus,
	ReasonFamiliarMatchup,
	ReasonQualityFloor,
	ReasonBenchUnder,
	ReasonLineJumpedUnder,
	ReasonLineDroppedUnder,
	ReasonLineDroppedOver,
	ReasonNegPMStreak,
	ReasonSignalCount,
	ReasonSC3EdgeFloor,
	ReasonStarterOverSCFloor,
	ReasonOpponentDepletedUnder,
	ReasonHighBookStdUnder,
	ReasonConfidence,
	ReasonAntiPattern,
	ReasonModelDirectionAffinity,
	ReasonAwayNoVegas,
	ReasonStarUnder,
	ReasonUnderStarAway,
	ReasonMedUsageUnder,
	ReasonStarterV12Under,
	ReasonOpponentUnderBlock,
	ReasonSignalDensity,
	ReasonLegacyBlock,
}

// FilterSummary is the run-level diagnostic record. Filters short-circuit,
// so exactly one rejection reason (or none) is recorded per candidate.
type FilterSummary struct {
	TotalCandidates int            `json:"total_candidates"`
	PassedFilters   int            `json:"passed_filters"`
	Rejected        map[string]int `json:"rejected"`
}

// NewFilterSummary returns a summary with every reason key present at zero.
func NewFilterSummary() FilterSummary {
	rejected := make(map[string]int, len(RejectionReasons))
	for _, reason := range RejectionReasons {
		rejected[reason] = 0
	}
	return FilterSummary{Rejected: rejected}
}

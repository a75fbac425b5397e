package aggregator

import "fmt"

// Sizing modes. Product direction moved from a fixed top-N cap to natural
// sizing (all qualifying picks); both remain supported and the choice is
// explicit configuration, never inferred.
const (
	SizingNatural = "natural"
	SizingCapped  = "capped"
)

// Core floors shared with tests and dashboards.
const (
	MinEdge        = 3.0
	MinSignalCount = 2
)

// Config carries every filter threshold as a named, retunable value.
// Thresholds are tuning parameters, not structure: changing one must
// never require touching aggregator control flow.
type Config struct {
	// Sizing
	SizingMode     string `yaml:"sizing_mode"`
	MaxPicksPerDay int    `yaml:"max_picks_per_day"`

	// Multi-model dedup: keep one candidate per (player, game), highest
	// HR-weighted edge first, model id as the final tiebreak.
	MultiModelDedup bool `yaml:"multi_model_dedup"`

	// Edge gates
	MinEdge          float64 `yaml:"min_edge"`
	OverEdgeFloor    float64 `yaml:"over_edge_floor"`
	UnderEdgeCeiling float64 `yaml:"under_edge_ceiling"`
	// Model families exempt from the UNDER edge ceiling. V12-family
	// UNDER predictions hold up at high edge where V9's collapse.
	UnderCeilingExemptFamilies []string `yaml:"under_ceiling_exempt_families"`

	// Matchup / quality gates
	FamiliarMatchupMax int     `yaml:"familiar_matchup_max"`
	MinQualityScore    float64 `yaml:"min_quality_score"`

	// Market-pattern blocks
	BenchUnderLineMax float64 `yaml:"bench_under_line_max"`
	LineJumpUnderMin  float64 `yaml:"line_jump_under_min"`
	LineDropUnderMax  float64 `yaml:"line_drop_under_max"`
	LineDropOverMax   float64 `yaml:"line_drop_over_max"`
	NegPMStreakMax    int     `yaml:"neg_pm_streak_max"`

	// Signal-count gates
	MinSignalCount        int     `yaml:"min_signal_count"`
	SC3EdgeFloor          float64 `yaml:"sc3_edge_floor"`
	SC3MaxSignals         int     `yaml:"sc3_max_signals"`
	StarterOverMinSignals int     `yaml:"starter_over_min_signals"`
	SignalDensityMax      int     `yaml:"signal_density_max"`

	// Narrow empirical blocks
	OpponentDepletedMin   int      `yaml:"opponent_depleted_min"`
	BookStdUnderMax       float64  `yaml:"book_std_under_max"`
	MinConfidence         float64  `yaml:"min_confidence"`
	MedUsageUnderLow      float64  `yaml:"med_usage_under_low"`
	MedUsageUnderHigh     float64  `yaml:"med_usage_under_high"`
	OpponentUnderBlock    []string `yaml:"opponent_under_block"`
	LegacyBlockedSystems  []string `yaml:"legacy_blocked_systems"`
	StarterV12UnderActive bool     `yaml:"starter_v12_under_active"`
}

// DefaultConfig returns the production thresholds. Natural sizing is the
// current product default; set SizingMode to "capped" plus MaxPicksPerDay
// to restore the historical top-N behavior.
func DefaultConfig() Config {
	return Config{
		SizingMode:      SizingNatural,
		MaxPicksPerDay:  5,
		MultiModelDedup: true,

		MinEdge:                    MinEdge,
		OverEdgeFloor:              3.5,
		UnderEdgeCeiling:           7.0,
		UnderCeilingExemptFamilies: []string{"V12", "V12_NOVEG", "V12_VEG", "V12_QUANTILE"},

		FamiliarMatchupMax: 6,
		MinQualityScore:    70.0,

		BenchUnderLineMax: 10.5,
		LineJumpUnderMin:  1.5,
		LineDropUnderMax:  -2.0,
		LineDropOverMax:   -1.5,
		NegPMStreakMax:    3,

		MinSignalCount:        MinSignalCount,
		SC3EdgeFloor:          5.0,
		SC3MaxSignals:         3,
		StarterOverMinSignals: 3,
		SignalDensityMax:      9,

		OpponentDepletedMin:   2,
		BookStdUnderMax:       2.5,
		MinConfidence:         0.35,
		MedUsageUnderLow:      18.0,
		MedUsageUnderHigh:     24.0,
		OpponentUnderBlock:    nil,
		LegacyBlockedSystems:  nil,
		StarterV12UnderActive: false,
	}
}

// Validate rejects configurations that would silently disable the stack.
func (c Config) Validate() error {
	if c.SizingMode != SizingNatural && c.SizingMode != SizingCapped {
		return fmt.Errorf("invalid sizing_mode %q (must be %q or %q)", c.SizingMode, SizingNatural, SizingCapped)
	}
	if c.SizingMode == SizingCapped && c.MaxPicksPerDay < 1 {
		return fmt.Errorf("capped sizing requires max_picks_per_day >= 1, got %d", c.MaxPicksPerDay)
	}
	if c.MinEdge <= 0 {
		return fmt.Errorf("min_edge must be positive, got %.2f", c.MinEdge)
	}
	if c.UnderEdgeCeiling <= c.MinEdge {
		return fmt.Errorf("under_edge_ceiling %.2f must exceed min_edge %.2f", c.UnderEdgeCeiling, c.MinEdge)
	}
	if c.MinSignalCount < 1 {
		return fmt.Errorf("min_signal_count must be >= 1, got %d", c.MinSignalCount)
	}
	if c.MinQualityScore < 0 || c.MinQualityScore > 100 {
		return fmt.Errorf("min_quality_score must be 0-100, got %.1f", c.MinQualityScore)
	}
	return nil
}

func (c Config) underCeilingExempt(family string) bool {
	for _, exempt := range c.UnderCeilingExemptFamilies {
		if family == exempt {
			return true
		}
	}
	return false
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

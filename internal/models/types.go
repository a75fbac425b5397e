package models

import "time"

// Direction of a prop recommendation relative to the market line.
const (
	DirectionOver  = "OVER"
	DirectionUnder = "UNDER"
)

// Player tier boundaries, derived from the market line. Used by the
// starter/bench filter rules rather than roster data, which is not
// always available at prediction time.
const (
	StarLineFloor    = 25.0 // line at or above → star tier
	StarterLineFloor = 15.0 // line at or above → starter tier
)

// PredictionRecord is one model's forecast for one player in one game.
// Identity is the (PlayerLookup, GameID) composite; GameID encodes the
// date and matchup. Records are created fresh each run and never mutated
// after signal evaluation begins.
type PredictionRecord struct {
	PlayerLookup      string  `json:"player_lookup" db:"player_lookup"`
	GameID            string  `json:"game_id" db:"game_id"`
	GameDate          string  `json:"game_date" db:"game_date"`
	TeamAbbr          string  `json:"team_abbr" db:"team_abbr"`
	OpponentAbbr      string  `json:"opponent_abbr" db:"opponent_abbr"`
	PredictedPoints   float64 `json:"predicted_points" db:"predicted_points"`
	LineValue         float64 `json:"line_value" db:"line_value"`
	Recommendation    string  `json:"recommendation" db:"recommendation"`
	Edge              float64 `json:"edge" db:"edge"`
	ConfidenceScore   float64 `json:"confidence_score" db:"confidence_score"`
	SystemID          string  `json:"system_id" db:"system_id"`
	SourceModelFamily string  `json:"source_model_family" db:"source_model_family"`

	// Data-completeness proxy, 0-100.
	FeatureQualityScore float64 `json:"feature_quality_score" db:"feature_quality_score"`

	// Optional enrichment. Zero values mean "unknown" and the filters
	// that read them fail open unless noted otherwise.
	GamesVsOpponent        int     `json:"games_vs_opponent" db:"games_vs_opponent"`
	PropLineDelta          float64 `json:"prop_line_delta" db:"prop_line_delta"`
	NegPMStreak            int     `json:"neg_pm_streak" db:"neg_pm_streak"`
	TeammateUsageAvailable float64 `json:"teammate_usage_available" db:"teammate_usage_available"`
	StarTeammatesOut       int     `json:"star_teammates_out" db:"star_teammates_out"`
	IsHome                 bool    `json:"is_home" db:"is_home"`
	HasVegasFeatures       bool    `json:"has_vegas_features" db:"has_vegas_features"`
	OpponentStarsOut       int     `json:"opponent_stars_out" db:"opponent_stars_out"`
	BookLineStd            float64 `json:"book_line_std" db:"book_line_std"`
	UsageRate              float64 `json:"usage_rate" db:"usage_rate"`
}

// Key returns the composite candidate key used for dedup, signal-result
// lookup and consensus pivoting.
func (p PredictionRecord) Key() string {
	return p.PlayerLookup + "|" + p.GameID
}

// IsStar reports whether the market line puts the player in the star tier.
func (p PredictionRecord) IsStar() bool { return p.LineValue >= StarLineFloor }

// IsStarter reports whether the market line puts the player at starter
// tier or above.
func (p PredictionRecord) IsStarter() bool { return p.LineValue >= StarterLineFloor }

// SignalResult is the outcome of evaluating one signal against one
// candidate. Ephemeral: recomputed every run, never persisted directly.
type SignalResult struct {
	Qualifies  bool                   `json:"qualifies"`
	Confidence float64                `json:"confidence"`
	SourceTag  string                 `json:"source_tag"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Block is one named supplemental-context block (e.g. three_pt_stats).
// Values are numeric; a missing key means the stat is unavailable.
type Block map[string]float64

// Supplemental maps block name to block for a single player.
type Supplemental map[string]Block

// FeatureMap is an optional precomputed numeric feature map.
type FeatureMap map[string]float64

// Combo classification of a validated signal-tag set.
const (
	ComboSynergistic = "SYNERGISTIC"
	ComboAntiPattern = "ANTI_PATTERN"
	ComboNeutral     = "NEUTRAL"
)

// Combo rollout status.
const (
	ComboStatusProduction  = "PRODUCTION"
	ComboStatusConditional = "CONDITIONAL"
	ComboStatusWatch       = "WATCH"
	ComboStatusBlocked     = "BLOCKED"
)

// Combo direction filters.
const (
	ComboOverOnly  = "OVER_ONLY"
	ComboUnderOnly = "UNDER_ONLY"
	ComboBoth      = "BOTH"
)

// ComboEntry is one registry row describing a validated combination of
// simultaneously-qualifying signal tags. Read-only during a run.
type ComboEntry struct {
	ComboID         string   `json:"combo_id" db:"combo_id"`
	Signals         []string `json:"signals" db:"signals"`
	Cardinality     int      `json:"cardinality" db:"cardinality"`
	Classification  string   `json:"classification" db:"classification"`
	Status          string   `json:"status" db:"status"`
	DirectionFilter string   `json:"direction_filter,omitempty" db:"direction_filter"`
	HitRate         float64  `json:"hit_rate" db:"hit_rate"`
	ROI             float64  `json:"roi" db:"roi"`
	SampleSize      int      `json:"sample_size" db:"sample_size"`
	ScoreWeight     float64  `json:"score_weight" db:"score_weight"`
}

// Pick is a candidate that survived the full filter stack, enriched with
// scoring and provenance fields. Immutable once produced; the sole
// artifact handed to persistence/export.
type Pick struct {
	PredictionRecord

	SignalTags     []string `json:"signal_tags"`
	SignalCount    int      `json:"signal_count"`
	CompositeScore float64  `json:"composite_score"`
	Rank           int      `json:"rank"`

	MatchedComboID      string  `json:"matched_combo_id,omitempty"`
	ComboClassification string  `json:"combo_classification,omitempty"`
	ComboHitRate        float64 `json:"combo_hit_rate,omitempty"`

	WarningTags []string `json:"warning_tags,omitempty"`

	ModelAgreementCount int      `json:"model_agreement_count"`
	AgreeingModelIDs    []string `json:"agreeing_model_ids,omitempty"`
	ConsensusBonus      float64  `json:"consensus_bonus"`

	PickAngles []string `json:"pick_angles,omitempty"`

	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ConsensusFactors describes cross-model agreement for one candidate key.
type ConsensusFactors struct {
	MajorityDirection      string   `json:"majority_direction"`
	ModelAgreementCount    int      `json:"model_agreement_count"`
	AgreeingModelIDs       []string `json:"agreeing_model_ids"`
	QuantileConsensusUnder bool     `json:"quantile_consensus_under"`
	ConsensusBonus         float64  `json:"consensus_bonus"`
}

// GradedPick is one historical pick joined with its real-world outcome.
// It is the raw material for the blacklist, affinity and health providers.
type GradedPick struct {
	PlayerLookup      string    `json:"player_lookup" db:"player_lookup"`
	GameDate          time.Time `json:"game_date" db:"game_date"`
	SystemID          string    `json:"system_id" db:"system_id"`
	SourceModelFamily string    `json:"source_model_family" db:"source_model_family"`
	Recommendation    string    `json:"recommendation" db:"recommendation"`
	Edge              float64   `json:"edge" db:"edge"`
	Won               bool      `json:"won" db:"won"`
	SignalTags        []string  `json:"signal_tags" db:"signal_tags"`
}

package combo

import "github.com/propdesk/bestbets/internal/models"

// fallbackRegistry returns the hardcoded combo snapshot used when the
// backing store is unavailable. The snapshot is rebuilt on each call so a
// caller mutating its copy cannot poison later runs.
func fallbackRegistry() Registry {
	entries := []models.ComboEntry{
		{
			ComboID:        "extreme_edge+high_edge",
			Signals:        []string{"extreme_edge", "high_edge"},
			Cardinality:    2,
			Classification: models.ComboSynergistic,
			Status:         models.ComboStatusProduction,
			HitRate:        61.2,
			ROI:            12.4,
			SampleSize:     98,
			ScoreWeight:    1.15,
		},
		{
			ComboID:         "high_edge+hot_streak_over",
			Signals:         []string{"high_edge", "hot_streak_over"},
			Cardinality:     2,
			Classification:  models.ComboSynergistic,
			Status:          models.ComboStatusProduction,
			DirectionFilter: models.ComboOverOnly,
			HitRate:         59.8,
			ROI:             9.1,
			SampleSize:      112,
			ScoreWeight:     1.10,
		},
		{
			ComboID:         "high_edge+minutes_surge+star_teammates_out",
			Signals:         []string{"high_edge", "minutes_surge", "star_teammates_out"},
			Cardinality:     3,
			Classification:  models.ComboSynergistic,
			Status:          models.ComboStatusProduction,
			DirectionFilter: models.ComboOverOnly,
			HitRate:         64.5,
			ROI:             18.2,
			SampleSize:      41,
			ScoreWeight:     1.25,
		},
		{
			ComboID:         "b2b_fatigue_under+cold_streak_under",
			Signals:         []string{"b2b_fatigue_under", "cold_streak_under"},
			Cardinality:     2,
			Classification:  models.ComboSynergistic,
			Status:          models.ComboStatusConditional,
			DirectionFilter: models.ComboUnderOnly,
			HitRate:         58.1,
			ROI:             6.3,
			SampleSize:      67,
			ScoreWeight:     1.08,
		},
		{
			ComboID:         "bench_under_edge+recovery_fade",
			Signals:         []string{"bench_under_edge", "recovery_fade"},
			Cardinality:     2,
			Classification:  models.ComboAntiPattern,
			Status:          models.ComboStatusBlocked,
			DirectionFilter: models.ComboUnderOnly,
			HitRate:         41.7,
			ROI:             -14.9,
			SampleSize:      36,
			ScoreWeight:     0.70,
		},
		{
			ComboID:        "3pt_bounce_back+prop_line_discount",
			Signals:        []string{"3pt_bounce_back", "prop_line_discount"},
			Cardinality:    2,
			Classification: models.ComboNeutral,
			Status:         models.ComboStatusWatch,
			HitRate:        52.9,
			ROI:            0.8,
			SampleSize:     51,
			ScoreWeight:    1.00,
		},
		{
			ComboID:         "blowout_risk_under+high_edge",
			Signals:         []string{"blowout_risk_under", "high_edge"},
			Cardinality:     2,
			Classification:  models.ComboAntiPattern,
			Status:          models.ComboStatusWatch,
			DirectionFilter: models.ComboUnderOnly,
			HitRate:         46.2,
			ROI:             -6.7,
			SampleSize:      52,
			ScoreWeight:     0.85,
		},
		{
			ComboID:        "high_edge+v12_agreement",
			Signals:        []string{"high_edge", "v12_agreement"},
			Cardinality:    2,
			Classification: models.ComboSynergistic,
			Status:         models.ComboStatusProduction,
			HitRate:        60.4,
			ROI:            10.6,
			SampleSize:     143,
			ScoreWeight:    1.12,
		},
	}

	registry := make(Registry, len(entries))
	for _, entry := range entries {
		registry[entry.ComboID] = entry
	}
	return registry
}

// Package consensus scores cross-model agreement on a candidate's
// direction. Agreement is weighted by model count only: feature-set
// diversity was found to be anti-correlated with winning and carries no
// multiplier here.
package consensus

import (
	"math"
	"sort"
	"strings"

	"github.com/propdesk/bestbets/internal/models"
)

// Agreement thresholds and bonus weights.
const (
	MinEdgeForVote    = 3.0  // models below this edge do not vote
	BonusPerExtraVote = 0.05 // per agreeing model beyond two
	QuantileUnderBonus = 0.10
)

// minQuantileModels is the floor for the quantile-under bonus: a single
// quantile model agreeing with itself is not consensus.
const minQuantileModels = 2

// IsQuantileFamily reports whether a model family uses quantile loss.
func IsQuantileFamily(family string) bool {
	return strings.Contains(strings.ToUpper(family), "QUANTILE")
}

// ComputeFactors pivots all models' predictions for the date by candidate
// key and scores agreement for every key with two or more models present.
// Keys with fewer than two models are skipped entirely.
func ComputeFactors(predictions []models.PredictionRecord) map[string]models.ConsensusFactors {
	byKey := make(map[string][]models.PredictionRecord)
	for _, pred := range predictions {
		key := pred.Key()
		byKey[key] = append(byKey[key], pred)
	}

	factors := make(map[string]models.ConsensusFactors)
	for key, preds := range byKey {
		if len(preds) < 2 {
			continue
		}

		var overIDs, underIDs []string
		quantileTotal := 0
		quantileUnder := 0
		for _, p := range preds {
			if IsQuantileFamily(p.SourceModelFamily) {
				quantileTotal++
				if p.Recommendation == models.DirectionUnder {
					quantileUnder++
				}
			}
			if math.Abs(p.Edge) < MinEdgeForVote {
				continue
			}
			switch p.Recommendation {
			case models.DirectionOver:
				overIDs = append(overIDs, p.SystemID)
			case models.DirectionUnder:
				underIDs = append(underIDs, p.SystemID)
			}
		}

		majority := models.DirectionOver
		agreeing := overIDs
		if len(underIDs) > len(overIDs) {
			majority = models.DirectionUnder
			agreeing = underIDs
		}
		if len(agreeing) == 0 {
			continue
		}
		sort.Strings(agreeing)

		quantileConsensusUnder := quantileTotal >= minQuantileModels && quantileUnder == quantileTotal

		bonus := BonusPerExtraVote * math.Max(0, float64(len(agreeing)-2))
		if quantileConsensusUnder {
			bonus += QuantileUnderBonus
		}
		bonus = math.Round(bonus*10000) / 10000

		factors[key] = models.ConsensusFactors{
			MajorityDirection:      majority,
			ModelAgreementCount:    len(agreeing),
			AgreeingModelIDs:       agreeing,
			QuantileConsensusUnder: quantileConsensusUnder,
			ConsensusBonus:         bonus,
		}
	}
	return factors
}

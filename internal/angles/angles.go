// Package angles derives human-readable explanations for selected picks.
// Pure post-hoc enrichment: nothing here feeds back into ranking.
package angles

import (
	"fmt"
	"strings"

	"github.com/propdesk/bestbets/internal/models"
	"github.com/propdesk/bestbets/internal/signals"
)

// signalAngles maps qualifying tags to reader-facing phrasings.
var signalAngles = map[string]string{
	signals.TagHighEdge:         "model projects a %.1f-point edge vs the line",
	signals.TagExtremeEdge:      "edge is in the extreme band (%.1f points)",
	signals.TagBenchUnderEdge:   "modest line with a clear under edge",
	signals.TagB2BFatigueUnder:  "second night of a back-to-back",
	signals.TagThreePtBounce:    "3pt shooting well below season norm, bounce-back spot",
	signals.TagHotStreakOver:    "has cleared this line in 3+ straight games",
	signals.TagColdStreakUnder:  "has stayed under this line in 3+ straight games",
	signals.TagMinutesSurge:     "recent minutes running well above season average",
	signals.TagRestAdvantage:    "coming off extended rest",
	signals.TagStarTeammatesOut: "star teammate(s) ruled out tonight",
	signals.TagUsageVacuum:      "large share of team usage unavailable",
	signals.TagBookConsensus:    "books agree tightly on the number, model disagrees",
	signals.TagPropLineDiscount: "line posted well below the player's season average",
	signals.TagBlowoutRiskUnder: "large spread raises blowout / benching risk",
	signals.TagV12Agreement:     "champion model independently agrees on direction",
	signals.TagRecoveryFade:     "early games back from an absence",
	signals.TagHighQualityData:  "near-complete feature data for this candidate",
	signals.TagHomeStarOver:     "home star with a meaningful over edge",
}

// Build produces the explanation strings for one pick from its signal
// results plus the combo and consensus provenance already on the record.
func Build(pick models.Pick, results []models.SignalResult) []string {
	var out []string

	for _, res := range results {
		if !res.Qualifies || res.SourceTag == signals.TagModelHealth {
			continue
		}
		template, ok := signalAngles[res.SourceTag]
		if !ok {
			continue
		}
		if strings.Contains(template, "%") {
			out = append(out, fmt.Sprintf(template, absEdgeOf(pick)))
		} else {
			out = append(out, template)
		}
	}

	if pick.MatchedComboID != "" && pick.ComboClassification == models.ComboSynergistic {
		out = append(out, fmt.Sprintf("signal combo %s has hit %.1f%% historically", pick.MatchedComboID, pick.ComboHitRate))
	}
	if pick.ModelAgreementCount >= 2 {
		out = append(out, fmt.Sprintf("%d models agree on %s", pick.ModelAgreementCount, strings.ToLower(pick.Recommendation)))
	}
	for _, res := range results {
		if res.SourceTag != signals.TagModelHealth || res.Metadata == nil {
			continue
		}
		if tier, ok := res.Metadata["tier"].(string); ok && tier != signals.HealthTierUnknown {
			out = append(out, fmt.Sprintf("champion model health: %s", strings.ToLower(tier)))
		}
	}

	return out
}

func absEdgeOf(pick models.Pick) float64 {
	if pick.Edge < 0 {
		return -pick.Edge
	}
	return pick.Edge
}

// Package riskmodel implements the pure scoring functions the screener
// layer composes: direct-match scoring, hop/match risk contribution,
// weighted propagation across a walked path, risk-level bucketing, and
// confidence scoring. None of it performs I/O.
package riskmodel

import (
	"math"

	"github.com/ledgerwatch/btc-sanctions/internal/domain"
)

// DirectScore scores a set of direct sanction matches on an address.
// Empty input scores 0; otherwise a base of 60, plus up to 20 more for
// multiple matches, plus 15 if any match is sourced from OFAC, clamped
// to 80.
func DirectScore(matches []domain.SanctionMatch) int {
	if len(matches) == 0 {
		return 0
	}
	score := 60
	if len(matches) > 1 {
		score += min(20, 5*len(matches))
	}
	for _, m := range matches {
		if m.ListSource == domain.OFAC {
			score += 15
			break
		}
	}
	return min(80, score)
}

// Bucket maps a 0-100 score to a risk level.
func Bucket(score int) domain.RiskLevel {
	switch {
	case score < 26:
		return domain.RiskLow
	case score < 51:
		return domain.RiskMedium
	case score < 76:
		return domain.RiskHigh
	default:
		return domain.RiskCritical
	}
}

// RC computes the risk contribution of a path node discovered at the
// given hop with matchCount sanction matches on its address.
func RC(hop, matchCount int) int {
	return min(100, max(0, 100-20*hop)+min(50, 25*matchCount))
}

// RiskPropagation computes the weighted, hop-decayed risk contribution of
// an entire walked path. An analysis with no path nodes propagates 0.
func RiskPropagation(nodes []domain.PathNode) int {
	if len(nodes) == 0 {
		return 0
	}
	var weightedSum, weightSum float64
	for _, n := range nodes {
		w := math.Max(0.1, 1-0.15*float64(n.Hop))
		weightedSum += float64(n.RiskContribution) * w
		weightSum += w
	}
	weightedAvg := weightedSum / weightSum
	nodePenalty := min(25, 5*len(nodes))
	return min(100, roundHalfUp(weightedAvg+float64(nodePenalty)))
}

// ConfidenceScore rates how much evidence backs a screening result.
func ConfidenceScore(matches []domain.SanctionMatch, analysis *domain.PathAnalysis) int {
	score := 0
	if len(matches) > 0 {
		score += 70
		if len(matches) > 1 {
			score += 10
		}
	} else {
		score += 30
	}
	if analysis != nil && analysis.TotalNodesAnalyzed > 0 {
		score += 15
		if analysis.TotalNodesAnalyzed > 10 {
			score += 5
		}
	}
	return min(100, score)
}

func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

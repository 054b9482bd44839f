package riskmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerwatch/btc-sanctions/internal/domain"
)

func TestDirectScore(t *testing.T) {
	assert.Equal(t, 0, DirectScore(nil))

	ofacMatch := domain.SanctionMatch{ListSource: domain.OFAC}
	assert.Equal(t, 75, DirectScore([]domain.SanctionMatch{ofacMatch}))

	nonOFAC := domain.SanctionMatch{ListSource: "OTHER"}
	assert.Equal(t, 60, DirectScore([]domain.SanctionMatch{nonOFAC}))

	assert.Equal(t, 80, DirectScore([]domain.SanctionMatch{ofacMatch, ofacMatch}))
}

func TestBucket(t *testing.T) {
	cases := map[int]domain.RiskLevel{
		0:   domain.RiskLow,
		25:  domain.RiskLow,
		26:  domain.RiskMedium,
		50:  domain.RiskMedium,
		51:  domain.RiskHigh,
		75:  domain.RiskHigh,
		76:  domain.RiskCritical,
		100: domain.RiskCritical,
	}
	for score, want := range cases {
		assert.Equal(t, want, Bucket(score), "score=%d", score)
	}
}

func TestRC(t *testing.T) {
	assert.Equal(t, 100, RC(1, 1))
	assert.Equal(t, 25, RC(5, 1))
	assert.Equal(t, 25, RC(6, 1))
}

func TestRiskPropagation_Empty(t *testing.T) {
	assert.Equal(t, 0, RiskPropagation(nil))
}

func TestConfidenceScore(t *testing.T) {
	assert.Equal(t, 30, ConfidenceScore(nil, nil))

	match := domain.SanctionMatch{}
	analysis := &domain.PathAnalysis{TotalNodesAnalyzed: 11}
	assert.Equal(t, 90, ConfidenceScore([]domain.SanctionMatch{match}, analysis))
}

func TestConfidenceScore_MultipleMatchesNoAnalysis(t *testing.T) {
	matches := []domain.SanctionMatch{{}, {}}
	assert.Equal(t, 80, ConfidenceScore(matches, nil))
}

package screener

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerwatch/btc-sanctions/internal/apperr"
	"github.com/ledgerwatch/btc-sanctions/internal/audit"
	"github.com/ledgerwatch/btc-sanctions/internal/domain"
	"github.com/ledgerwatch/btc-sanctions/internal/indexer"
	"github.com/ledgerwatch/btc-sanctions/internal/riskmodel"
	"github.com/ledgerwatch/btc-sanctions/internal/validation"
)

// TransactionScreener screens transactions by screening the set of
// addresses on one or both sides of the transaction and aggregating the
// per-address results.
type TransactionScreener struct {
	client    indexer.Client
	addresses *AddressScreener
	audit     *audit.Log
	logger    *zap.Logger
}

// NewTransactionScreener builds a TransactionScreener.
func NewTransactionScreener(client indexer.Client, addresses *AddressScreener, auditLog *audit.Log, logger *zap.Logger) *TransactionScreener {
	return &TransactionScreener{client: client, addresses: addresses, audit: auditLog, logger: logger}
}

// normalizeDirection maps the incoming/outgoing aliases onto the
// canonical inputs/outputs vocabulary.
func normalizeDirection(d domain.Direction) domain.Direction {
	switch d {
	case "incoming":
		return domain.DirectionInputs
	case "outgoing":
		return domain.DirectionOutputs
	default:
		return d
	}
}

// Screen screens a single transaction.
func (s *TransactionScreener) Screen(ctx context.Context, txHash string, direction domain.Direction, includeMetadata bool, correlationID string) (domain.TxScreeningResult, error) {
	start := time.Now()

	if !validation.IsValidTxHash(txHash) {
		return domain.TxScreeningResult{}, apperr.New(apperr.Validation, "invalid transaction hash: "+txHash)
	}

	tx, err := s.client.GetTransaction(ctx, txHash)
	if err != nil {
		return domain.TxScreeningResult{}, err
	}

	direction = normalizeDirection(direction)
	addrs := selectAddresses(tx, direction)

	addrResults := make([]domain.ScreeningResult, 0, len(addrs))
	for _, addr := range addrs {
		res, serr := s.addresses.Screen(ctx, addr, false, txScreenMaxHops, correlationID)
		if serr != nil {
			s.logger.Warn("tx screen: address screen failed", zap.String("address", addr), zap.Error(serr))
			continue
		}
		addrResults = append(addrResults, res)
	}

	overallScore, overallConfidence := aggregate(addrResults, len(addrs))
	overallLevel := riskmodel.Bucket(overallScore)

	var matches []domain.SanctionMatch
	for _, r := range addrResults {
		matches = append(matches, r.SanctionMatches...)
	}

	result := domain.TxScreeningResult{
		TxHash:           txHash,
		OverallRiskScore: overallScore,
		OverallRiskLevel: overallLevel,
		Confidence:       overallConfidence,
		SanctionMatches:  matches,
		AddressResults:   addrResults,
		Timestamp:        time.Now(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
	if includeMetadata {
		result.Transaction = tx
	}

	s.audit.Append(domain.AuditEntry{
		Action:  "screen_transaction",
		Subject: "tx:" + txHash,
		TxHash:  txHash,
		Result: map[string]interface{}{
			"overallRiskScore": overallScore,
			"overallRiskLevel": overallLevel,
			"addressCount":     len(addrs),
		},
		Timestamp:        time.Now(),
		CorrelationID:    correlationID,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Success:          true,
	})

	return result, nil
}

// ScreenBatch screens transactions sequentially to respect indexer
// limits; a per-tx failure is logged and skipped.
func (s *TransactionScreener) ScreenBatch(ctx context.Context, txHashes []string, direction domain.Direction, includeMetadata bool, correlationID string) []domain.TxScreeningResult {
	results := make([]domain.TxScreeningResult, 0, len(txHashes))
	for _, h := range txHashes {
		res, err := s.Screen(ctx, h, direction, includeMetadata, correlationID)
		if err != nil {
			s.logger.Warn("tx screenBatch: screen failed", zap.String("txHash", h), zap.Error(err))
			continue
		}
		results = append(results, res)
	}
	return results
}

func selectAddresses(tx *domain.BitcoinTransaction, direction domain.Direction) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(addrs []string) {
		for _, a := range addrs {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	if direction == domain.DirectionInputs || direction == domain.DirectionBoth {
		for _, in := range tx.Inputs {
			add(in.Addresses)
		}
	}
	if direction == domain.DirectionOutputs || direction == domain.DirectionBoth {
		for _, o := range tx.Outputs {
			add(o.Addresses)
		}
	}
	return out
}

func aggregate(results []domain.ScreeningResult, totalAddresses int) (score, confidence int) {
	completenessRatio := 1.0
	if totalAddresses > 0 {
		completenessRatio = float64(len(results)) / float64(totalAddresses)
	}

	if len(results) == 0 {
		confidence = min(100, int(math.Round(60+20*completenessRatio)))
		return 0, confidence
	}

	var weightedSum, weightSum float64
	highRiskCount := 0
	var confidenceSum float64
	for _, r := range results {
		matches := len(r.SanctionMatches)
		weight := float64(max(1, matches)) * (float64(r.Confidence) / 100)
		weightedSum += float64(r.RiskScore) * weight
		weightSum += weight
		confidenceSum += float64(r.Confidence)
		if r.RiskLevel == domain.RiskHigh || r.RiskLevel == domain.RiskCritical {
			highRiskCount++
		}
	}

	avgWeighted := 0.0
	if weightSum > 0 {
		avgWeighted = weightedSum / weightSum
	}
	highRiskPenalty := min(25, 10*highRiskCount)
	score = clamp(int(math.Round(avgWeighted+float64(highRiskPenalty))), 0, 100)

	avgConfidence := confidenceSum / float64(len(results))
	confidence = min(100, int(math.Round(60+20*completenessRatio+20*avgConfidence/100)))
	return score, confidence
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

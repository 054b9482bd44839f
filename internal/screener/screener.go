// Package screener orchestrates the address and transaction screening
// pipelines: validation, direct sanction matching, optional graph
// walking, risk scoring, and audit logging. It performs no I/O of its
// own beyond what its collaborators expose.
package screener

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerwatch/btc-sanctions/internal/apperr"
	"github.com/ledgerwatch/btc-sanctions/internal/audit"
	"github.com/ledgerwatch/btc-sanctions/internal/btcfmt"
	"github.com/ledgerwatch/btc-sanctions/internal/domain"
	"github.com/ledgerwatch/btc-sanctions/internal/riskmodel"
	"github.com/ledgerwatch/btc-sanctions/internal/sanctions"
	"github.com/ledgerwatch/btc-sanctions/internal/validation"
	"github.com/ledgerwatch/btc-sanctions/internal/walker"
)

// batchChunkSize is how many addresses screenBatch processes per
// concurrent chunk.
const batchChunkSize = 10

// batchChunkPause separates successive chunks so a burst of address
// screens does not itself become a source of indexer rate-limit errors.
const batchChunkPause = 100 * time.Millisecond

// txScreenMaxHops is the (currently unused while walking is disabled)
// hop budget reserved for a future transaction-screening walk mode.
const txScreenMaxHops = 3

// AddressScreener screens single addresses and address batches.
type AddressScreener struct {
	index  *sanctions.Index
	walk   *walker.Walker
	audit  *audit.Log
	logger *zap.Logger
}

// NewAddressScreener builds an AddressScreener.
func NewAddressScreener(index *sanctions.Index, walk *walker.Walker, auditLog *audit.Log, logger *zap.Logger) *AddressScreener {
	return &AddressScreener{index: index, walk: walk, audit: auditLog, logger: logger}
}

// Screen screens a single address.
func (s *AddressScreener) Screen(ctx context.Context, addr string, includeWalk bool, maxHops int, correlationID string) (domain.ScreeningResult, error) {
	start := time.Now()

	if !validation.IsValidAddress(addr) {
		return domain.ScreeningResult{}, apperr.New(apperr.Validation, "invalid bitcoin address: "+addr)
	}

	entities, err := s.index.FindByAddress(addr)
	if err != nil {
		return domain.ScreeningResult{}, err
	}
	matches := toMatches(addr, entities)

	score := riskmodel.DirectScore(matches)

	var pathAnalysis *domain.PathAnalysis
	walkErr := false
	if includeWalk && s.walk != nil {
		hops := clampHops(maxHops)
		analysis, ok := s.walk.Walk(ctx, addr, hops)
		if ok {
			pathAnalysis = &analysis
			score = min(100, score+int(math.Round(0.6*float64(analysis.RiskPropagation))))
		} else {
			walkErr = true
		}
	}

	riskLevel := riskmodel.Bucket(score)
	confidence := riskmodel.ConfidenceScore(matches, pathAnalysis)

	result := domain.ScreeningResult{
		Address:          addr,
		RiskScore:        score,
		RiskLevel:        riskLevel,
		SanctionMatches:  matches,
		PathAnalysis:     pathAnalysis,
		Timestamp:        time.Now(),
		Confidence:       confidence,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}

	s.recordAudit(addr, correlationID, result, walkErr, start)
	return result, nil
}

func (s *AddressScreener) recordAudit(addr, correlationID string, result domain.ScreeningResult, walkFailed bool, start time.Time) {
	resultBag := map[string]interface{}{
		"riskScore":  result.RiskScore,
		"riskLevel":  result.RiskLevel,
		"matchCount": len(result.SanctionMatches),
		"walked":     result.PathAnalysis != nil,
		"walkFailed": walkFailed,
	}
	if result.PathAnalysis != nil {
		sats := make([]int64, 0, len(result.PathAnalysis.PathNodes))
		for _, n := range result.PathAnalysis.PathNodes {
			sats = append(sats, n.ValueSats)
		}
		resultBag["pathValueBTC"] = btcfmt.SumSats(sats...)
	}
	s.audit.Append(domain.AuditEntry{
		Action:           "screen_address",
		Subject:          addr,
		Result:           resultBag,
		Timestamp:        time.Now(),
		CorrelationID:    correlationID,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Success:          true,
	})
}

// ScreenBatch screens a batch of addresses, 10 at a time concurrently,
// with a pause between chunks. A per-address failure yields a stub LOW
// result rather than dropping the entry, so the output length always
// equals the number of valid inputs.
func (s *AddressScreener) ScreenBatch(ctx context.Context, addrs []string, includeWalk bool, maxHops int, correlationID string) []domain.ScreeningResult {
	valid := make([]string, 0, len(addrs))
	invalidLogged := 0
	for _, a := range addrs {
		if validation.IsValidAddress(a) {
			valid = append(valid, a)
			continue
		}
		if invalidLogged < 5 {
			s.logger.Warn("screenBatch: invalid address skipped", zap.String("address", a))
			invalidLogged++
		}
	}

	results := make([]domain.ScreeningResult, len(valid))
	for start := 0; start < len(valid); start += batchChunkSize {
		end := min(start+batchChunkSize, len(valid))
		chunk := valid[start:end]

		done := make(chan struct{}, len(chunk))
		for i, addr := range chunk {
			go func(i int, addr string) {
				defer func() { done <- struct{}{} }()
				res, err := s.Screen(ctx, addr, includeWalk, maxHops, correlationID)
				if err != nil {
					s.logger.Warn("screenBatch: address screen failed", zap.String("address", addr), zap.Error(err))
					res = domain.ScreeningResult{
						Address:   addr,
						RiskScore: 0,
						RiskLevel: domain.RiskLow,
						Timestamp: time.Now(),
					}
				}
				results[start+i] = res
			}(i, addr)
		}
		for range chunk {
			<-done
		}

		if end < len(valid) {
			time.Sleep(batchChunkPause)
		}
	}
	return results
}

func toMatches(addr string, entities []*domain.SanctionEntity) []domain.SanctionMatch {
	matches := make([]domain.SanctionMatch, 0, len(entities))
	for _, e := range entities {
		matches = append(matches, domain.SanctionMatch{
			ListSource:     e.ListSource,
			EntityName:     e.Name,
			EntityID:       e.EntityID,
			MatchType:      domain.MatchDirect,
			Confidence:     100,
			MatchedAddress: addr,
		})
	}
	return matches
}

func clampHops(hops int) int {
	if hops < 1 {
		return 1
	}
	if hops > 10 {
		return 10
	}
	return hops
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

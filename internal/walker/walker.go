// Package walker implements the bounded breadth-first transaction-graph
// traversal anchored at a target address: it discovers sanctioned
// addresses within a configurable hop radius, fanning out across the
// indexer client with a bounded concurrency cap per hop.
package walker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerwatch/btc-sanctions/internal/domain"
	"github.com/ledgerwatch/btc-sanctions/internal/indexer"
	"github.com/ledgerwatch/btc-sanctions/internal/riskmodel"
	"github.com/ledgerwatch/btc-sanctions/internal/sanctions"
)

// CacheTTL is how long a memoized walk result is trusted.
const CacheTTL = 30 * time.Minute

// batchConcurrency is the hard cap on in-flight transaction fetches
// within one hop's batch.
const batchConcurrency = 5

// hopFanout is how many txids from the current hop are considered per
// walker step.
const hopFanout = 10

// expansionWidth is how many previously-unvisited addresses from a
// transaction are expanded into the next hop.
const expansionWidth = 3

// Walker performs bounded multi-hop graph walks and memoizes results.
type Walker struct {
	index   *sanctions.Index
	client  indexer.Client
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[cacheKey]domain.PathAnalysis
}

type cacheKey struct {
	target  string
	maxHops int
}

// New builds a Walker.
func New(index *sanctions.Index, client indexer.Client, logger *zap.Logger) *Walker {
	return &Walker{
		index:  index,
		client: client,
		logger: logger,
		cache:  make(map[cacheKey]domain.PathAnalysis),
	}
}

// Walk performs (or returns a cached) bounded BFS from target out to
// maxHops. The bool result is false only when the walk as a whole could
// not run — e.g. the seed fetch for target failed — as opposed to a
// walk that ran to completion and simply found nothing. Per-txid and
// per-address fetch failures during expansion are logged and skipped;
// they degrade the walk to a partial result but do not fail it. A
// failed walk is not cached.
func (w *Walker) Walk(ctx context.Context, target string, maxHops int) (domain.PathAnalysis, bool) {
	key := cacheKey{target: target, maxHops: maxHops}

	w.mu.Lock()
	if cached, ok := w.cache[key]; ok && time.Since(cached.CachedAt) < CacheTTL {
		w.mu.Unlock()
		return cached, true
	}
	w.mu.Unlock()

	analysis, ok := w.walk(ctx, target, maxHops)
	if !ok {
		return analysis, false
	}
	analysis.CachedAt = time.Now()

	w.mu.Lock()
	w.cache[key] = analysis
	w.mu.Unlock()

	return analysis, true
}

type job struct {
	txid string
	hop  int
}

func (w *Walker) walk(ctx context.Context, target string, maxHops int) (domain.PathAnalysis, bool) {
	analysis := domain.PathAnalysis{
		TargetAddress: target,
		MaxHops:       maxHops,
		PathNodes:     []domain.PathNode{},
	}
	if maxHops <= 0 {
		return analysis, true
	}

	visitedAddresses := map[string]bool{target: true}
	visitedTransactions := map[string]bool{}
	var mu sync.Mutex // guards visitedAddresses, visitedTransactions, analysis accumulators

	seedTxids, err := w.client.GetAddressTransactions(ctx, target, 25)
	if err != nil {
		w.logger.Warn("walker: seed fetch failed", zap.String("target", target), zap.Error(err))
		return analysis, false
	}

	queue := make([]job, 0, len(seedTxids))
	for _, t := range seedTxids {
		queue = append(queue, job{txid: t, hop: 0})
	}

	for hop := 0; hop < maxHops; hop++ {
		var current []job
		for _, j := range queue {
			if j.hop == hop {
				current = append(current, j)
			}
		}
		if len(current) == 0 {
			continue
		}
		if len(current) > hopFanout {
			current = current[:hopFanout]
		}

		next := w.processHop(ctx, current, hop, maxHops, target, visitedAddresses, visitedTransactions, &analysis, &mu)
		queue = append(queue, next...)
	}

	analysis.SanctionedNodesFound = len(analysis.PathNodes)
	analysis.RiskPropagation = riskmodel.RiskPropagation(analysis.PathNodes)
	return analysis, true
}

// processHop fetches, in batches of batchConcurrency, every transaction
// in current and folds any sanctioned path nodes into analysis. It
// returns the next hop's seed jobs.
func (w *Walker) processHop(
	ctx context.Context,
	current []job,
	hop, maxHops int,
	target string,
	visitedAddresses map[string]bool,
	visitedTransactions map[string]bool,
	analysis *domain.PathAnalysis,
	mu *sync.Mutex,
) []job {
	var next []job
	var wg sync.WaitGroup
	sem := make(chan struct{}, batchConcurrency)

	for _, j := range current {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			tx, err := w.client.GetTransaction(ctx, j.txid)
			if err != nil {
				w.logger.Warn("walker: transaction fetch failed",
					zap.String("txid", j.txid), zap.Error(err))
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if visitedTransactions[tx.TxID] {
				return
			}
			visitedTransactions[tx.TxID] = true
			analysis.TotalNodesAnalyzed++

			expanded := 0
			for _, addr := range indexer.ExtractAddresses(tx) {
				alreadyVisited := visitedAddresses[addr]

				if !alreadyVisited {
					if matches, merr := w.index.FindByAddress(addr); merr == nil && len(matches) > 0 {
						analysis.PathNodes = append(analysis.PathNodes, domain.PathNode{
							Address:          addr,
							TxID:             tx.TxID,
							Hop:              hop + 1,
							ValueSats:        addressValue(tx, addr),
							TimestampMillis:  tx.BlockTime * 1000,
							RiskContribution: riskmodel.RC(hop+1, len(matches)),
						})
					}
				}

				if hop+1 < maxHops && !alreadyVisited && expanded < expansionWidth {
					visitedAddresses[addr] = true
					expanded++
					txids, ferr := w.client.GetAddressTransactions(ctx, addr, indexer.WalkerHopLimit)
					if ferr != nil {
						w.logger.Warn("walker: expansion fetch failed",
							zap.String("address", addr), zap.Error(ferr))
						continue
					}
					for _, t := range txids {
						next = append(next, job{txid: t, hop: hop + 1})
					}
				}
			}
		}(j)
	}
	wg.Wait()
	return next
}

// addressValue sums the sats paid from or to addr across a transaction's
// inputs and outputs.
func addressValue(tx *domain.BitcoinTransaction, addr string) int64 {
	var total int64
	for _, in := range tx.Inputs {
		for _, a := range in.Addresses {
			if a == addr {
				total += in.ValueSats
			}
		}
	}
	for _, out := range tx.Outputs {
		for _, a := range out.Addresses {
			if a == addr {
				total += out.ValueSats
			}
		}
	}
	return total
}

// ClearCache discards all memoized walks.
func (w *Walker) ClearCache() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache = make(map[cacheKey]domain.PathAnalysis)
}

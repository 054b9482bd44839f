package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerwatch/btc-sanctions/internal/apperr"
	"github.com/ledgerwatch/btc-sanctions/internal/domain"
)

// FakeClient is an in-memory Client backed by caller-supplied fixtures.
// It is used by tests and can back a local demo deployment that has no
// real indexer to talk to.
type FakeClient struct {
	mu            sync.RWMutex
	transactions  map[string]*domain.BitcoinTransaction
	addressTxs    map[string][]string
	addressInfo   map[string]*AddressInfo
	limiter       *slidingWindowLimiter
	FailTxIDs     map[string]bool
	FailAddresses map[string]bool
}

// NewFakeClient builds an empty FakeClient; populate it with Seed* methods.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		transactions:  make(map[string]*domain.BitcoinTransaction),
		addressTxs:    make(map[string][]string),
		addressInfo:   make(map[string]*AddressInfo),
		limiter:       newSlidingWindowLimiter(60*time.Second, 60),
		FailTxIDs:     make(map[string]bool),
		FailAddresses: make(map[string]bool),
	}
}

// SeedTransaction registers a transaction reachable by GetTransaction.
func (f *FakeClient) SeedTransaction(tx *domain.BitcoinTransaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions[tx.TxID] = tx
}

// SeedAddressTransactions registers the txids GetAddressTransactions
// returns for addr.
func (f *FakeClient) SeedAddressTransactions(addr string, txids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addressTxs[addr] = txids
}

// SeedAddressInfo registers the AddressInfo GetAddressInfo returns for addr.
func (f *FakeClient) SeedAddressInfo(addr string, info *AddressInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addressInfo[addr] = info
}

func rateLimitErr(count, limit int, resetAt time.Time) error {
	return apperr.New(apperr.ExternalAPI, "indexer rate limit exceeded").
		WithDetails(fmt.Sprintf("count=%d limit=%d resetAt=%s", count, limit, resetAt.Format(time.RFC3339)))
}

// GetTransaction implements Client.
func (f *FakeClient) GetTransaction(ctx context.Context, txid string) (*domain.BitcoinTransaction, error) {
	if allowed, count, limit, resetAt := f.limiter.Allow(); !allowed {
		return nil, rateLimitErr(count, limit, resetAt)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.FailTxIDs[txid] {
		return nil, apperr.New(apperr.ExternalAPI, "simulated indexer failure for "+txid)
	}
	tx, ok := f.transactions[txid]
	if !ok {
		return nil, apperr.New(apperr.DataNotFound, "transaction not found: "+txid)
	}
	return tx, nil
}

// GetAddressTransactions implements Client.
func (f *FakeClient) GetAddressTransactions(ctx context.Context, addr string, limit int) ([]string, error) {
	if allowed, count, lim, resetAt := f.limiter.Allow(); !allowed {
		return nil, rateLimitErr(count, lim, resetAt)
	}
	limit = clampLimit(limit)
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.FailAddresses[addr] {
		return nil, apperr.New(apperr.ExternalAPI, "simulated indexer failure for "+addr)
	}
	txids := f.addressTxs[addr]
	if len(txids) > limit {
		txids = txids[:limit]
	}
	return txids, nil
}

// GetAddressInfo implements Client.
func (f *FakeClient) GetAddressInfo(ctx context.Context, addr string) (*AddressInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if info, ok := f.addressInfo[addr]; ok {
		return info, nil
	}
	return &AddressInfo{Address: addr}, nil
}

// RateLimitStatus implements Client.
func (f *FakeClient) RateLimitStatus() RateLimitStatus {
	count, limit, resetAt := f.limiter.Status()
	return RateLimitStatus{Count: count, Limit: limit, ResetAt: resetAt}
}

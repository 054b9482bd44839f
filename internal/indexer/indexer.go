// Package indexer shields the rest of the system from the wire format of
// an external, high-level blockchain indexer. All access is synchronous
// in effect: a call suspends its caller until data arrives or the
// request fails.
package indexer

import (
	"context"
	"time"

	"github.com/ledgerwatch/btc-sanctions/internal/domain"
)

// DefaultTxLimit is the default number of recent transactions returned
// for an address when the caller does not specify a limit.
const DefaultTxLimit = 25

// WalkerHopLimit is the limit the Path Walker requests for hops beyond
// the initial target address.
const WalkerHopLimit = 5

// RateLimitStatus reports the indexer client's current request budget.
type RateLimitStatus struct {
	Count   int       `json:"count"`
	Limit   int       `json:"limit"`
	ResetAt time.Time `json:"resetAt"`
}

// AddressInfo is a balance/activity summary for an address, as returned
// by Client.GetAddressInfo. The health endpoint does not call it.
type AddressInfo struct {
	Address      string `json:"address"`
	TxCount      int    `json:"txCount"`
	BalanceSats  int64  `json:"balanceSats"`
}

// Client is the port the rest of the system depends on. HTTPClient is the
// production implementation; FakeClient backs tests and local fixtures.
type Client interface {
	GetTransaction(ctx context.Context, txid string) (*domain.BitcoinTransaction, error)
	GetAddressTransactions(ctx context.Context, addr string, limit int) ([]string, error)
	GetAddressInfo(ctx context.Context, addr string) (*AddressInfo, error)
	RateLimitStatus() RateLimitStatus
}

// ExtractAddresses returns the union of unique addresses referenced by a
// transaction's inputs and outputs, in first-seen order.
func ExtractAddresses(tx *domain.BitcoinTransaction) []string {
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
	for _, in := range tx.Inputs {
		add(in.Addresses)
	}
	for _, o := range tx.Outputs {
		add(o.Addresses)
	}
	return out
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultTxLimit {
		return DefaultTxLimit
	}
	return limit
}

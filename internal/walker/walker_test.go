package walker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerwatch/btc-sanctions/internal/domain"
	"github.com/ledgerwatch/btc-sanctions/internal/indexer"
	"github.com/ledgerwatch/btc-sanctions/internal/sanctions"
)

type staticSource struct{ doc []byte }

func (s staticSource) Load() ([]byte, error) { return s.doc, nil }

const sanctionsDoc = `{
	"metadata": {"source": "OFAC SDN", "lastUpdated": "2026-01-01", "version": "1", "totalEntities": 1, "cryptocurrencies": {}},
	"entities": [
		{"entityId": "E-1", "entityName": "Evil Exchange", "address": "sanctioned-addr", "remarks": "", "isActive": true}
	]
}`

func newTestWalker(t *testing.T, client indexer.Client) *Walker {
	t.Helper()
	index := sanctions.New(staticSource{doc: []byte(sanctionsDoc)})
	logger := zap.NewNop()
	return New(index, client, logger)
}

func TestWalker_FindsDirectlyConnectedSanctionedAddress(t *testing.T) {
	client := indexer.NewFakeClient()
	client.SeedAddressTransactions("target", []string{"tx1"})
	client.SeedTransaction(&domain.BitcoinTransaction{
		TxID:      "tx1",
		BlockTime: 1000,
		Inputs:    []domain.TxInput{{Addresses: []string{"target"}, ValueSats: 500}},
		Outputs:   []domain.TxOutput{{Addresses: []string{"sanctioned-addr"}, ValueSats: 500}},
	})

	w := newTestWalker(t, client)
	analysis, ok := w.Walk(context.Background(), "target", 2)
	require.True(t, ok)

	require.Len(t, analysis.PathNodes, 1)
	assert.Equal(t, "sanctioned-addr", analysis.PathNodes[0].Address)
	assert.Equal(t, 1, analysis.PathNodes[0].Hop)
	assert.Equal(t, 1, analysis.SanctionedNodesFound)
	assert.Equal(t, 1, analysis.TotalNodesAnalyzed)
}

func TestWalker_NoHopsReturnsEmptyAnalysis(t *testing.T) {
	client := indexer.NewFakeClient()
	w := newTestWalker(t, client)

	analysis, ok := w.Walk(context.Background(), "target", 0)
	require.True(t, ok)
	assert.Empty(t, analysis.PathNodes)
	assert.Equal(t, 0, analysis.SanctionedNodesFound)
}

func TestWalker_CachesResult(t *testing.T) {
	client := indexer.NewFakeClient()
	client.SeedAddressTransactions("target", []string{"tx1"})
	client.SeedTransaction(&domain.BitcoinTransaction{
		TxID:    "tx1",
		Inputs:  []domain.TxInput{{Addresses: []string{"target"}, ValueSats: 10}},
		Outputs: []domain.TxOutput{{Addresses: []string{"other"}, ValueSats: 10}},
	})

	w := newTestWalker(t, client)
	first, ok := w.Walk(context.Background(), "target", 1)
	require.True(t, ok)
	second, ok := w.Walk(context.Background(), "target", 1)
	require.True(t, ok)

	assert.Equal(t, first.CachedAt, second.CachedAt)

	w.ClearCache()
	third, ok := w.Walk(context.Background(), "target", 1)
	require.True(t, ok)
	assert.True(t, third.CachedAt.After(first.CachedAt) || third.CachedAt.Equal(first.CachedAt))
}

func TestWalker_NoSeedTransactionsYieldsEmptyAnalysis(t *testing.T) {
	client := indexer.NewFakeClient()
	// No seed transactions registered for "target": GetAddressTransactions
	// returns an empty slice, not an error, so the walk succeeds with an
	// empty-but-well-formed analysis.
	w := newTestWalker(t, client)

	analysis, ok := w.Walk(context.Background(), "target", 2)
	require.True(t, ok)
	assert.Empty(t, analysis.PathNodes)
}

func TestWalker_SeedFetchFailureFailsWholeWalk(t *testing.T) {
	client := indexer.NewFakeClient()
	client.FailAddresses = map[string]bool{"target": true}
	w := newTestWalker(t, client)

	analysis, ok := w.Walk(context.Background(), "target", 2)
	assert.False(t, ok)
	assert.Empty(t, analysis.PathNodes)
}

package screener

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerwatch/btc-sanctions/internal/audit"
	"github.com/ledgerwatch/btc-sanctions/internal/domain"
	"github.com/ledgerwatch/btc-sanctions/internal/indexer"
	"github.com/ledgerwatch/btc-sanctions/internal/sanctions"
	"github.com/ledgerwatch/btc-sanctions/internal/walker"
)

type staticSource struct{ doc []byte }

func (s staticSource) Load() ([]byte, error) { return s.doc, nil }

const sanctionsDoc = `{
	"metadata": {"source": "OFAC SDN", "lastUpdated": "2026-01-01", "version": "1", "totalEntities": 1, "cryptocurrencies": {}},
	"entities": [
		{"entityId": "E-1", "entityName": "Evil Exchange", "address": "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", "remarks": "", "isActive": true}
	]
}`

func newTestAddressScreener(t *testing.T) (*AddressScreener, *indexer.FakeClient) {
	t.Helper()
	index := sanctions.New(staticSource{doc: []byte(sanctionsDoc)})
	client := indexer.NewFakeClient()
	logger := zap.NewNop()
	w := walker.New(index, client, logger)
	auditLog := audit.New(t.TempDir(), logger)
	return NewAddressScreener(index, w, auditLog, logger), client
}

func TestAddressScreener_Screen_DirectMatch(t *testing.T) {
	s, _ := newTestAddressScreener(t)

	result, err := s.Screen(context.Background(), "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", false, 3, "corr-1")
	require.NoError(t, err)

	require.Len(t, result.SanctionMatches, 1)
	assert.Equal(t, domain.RiskHigh, result.RiskLevel)
	assert.Equal(t, 75, result.RiskScore)
}

func TestAddressScreener_Screen_NoMatch(t *testing.T) {
	s, _ := newTestAddressScreener(t)

	result, err := s.Screen(context.Background(), "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy", false, 3, "corr-2")
	require.NoError(t, err)

	assert.Empty(t, result.SanctionMatches)
	assert.Equal(t, 0, result.RiskScore)
	assert.Equal(t, domain.RiskLow, result.RiskLevel)
}

func TestAddressScreener_Screen_InvalidAddress(t *testing.T) {
	s, _ := newTestAddressScreener(t)

	_, err := s.Screen(context.Background(), "not-an-address", false, 3, "corr-3")
	require.Error(t, err)
}

func TestAddressScreener_ScreenBatch_SkipsInvalidKeepsValidCount(t *testing.T) {
	s, _ := newTestAddressScreener(t)

	addrs := []string{
		"1BoatSLRHtKNngkdXEeobR76b53LETtpyT",
		"garbage",
		"3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy",
	}
	results := s.ScreenBatch(context.Background(), addrs, false, 3, "corr-batch")
	require.Len(t, results, 2)
}

func TestAddressScreener_Screen_WithWalk(t *testing.T) {
	s, client := newTestAddressScreener(t)

	client.SeedAddressTransactions("3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy", []string{"tx1"})
	client.SeedTransaction(&domain.BitcoinTransaction{
		TxID:      "tx1",
		BlockTime: time.Now().Unix(),
		Inputs:    []domain.TxInput{{Addresses: []string{"3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"}, ValueSats: 1000}},
		Outputs:   []domain.TxOutput{{Addresses: []string{"1BoatSLRHtKNngkdXEeobR76b53LETtpyT"}, ValueSats: 1000}},
	})

	result, err := s.Screen(context.Background(), "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy", true, 2, "corr-4")
	require.NoError(t, err)
	require.NotNil(t, result.PathAnalysis)
	assert.Equal(t, 1, result.PathAnalysis.SanctionedNodesFound)
	assert.Greater(t, result.RiskScore, 0)
}

func TestAddressScreener_Screen_WalkFailureOmitsPathAnalysis(t *testing.T) {
	s, client := newTestAddressScreener(t)
	client.FailAddresses = map[string]bool{"3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy": true}

	result, err := s.Screen(context.Background(), "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy", true, 2, "corr-5")
	require.NoError(t, err)
	assert.Nil(t, result.PathAnalysis)
	assert.Equal(t, 0, result.RiskScore)
}

package screener

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerwatch/btc-sanctions/internal/audit"
	"github.com/ledgerwatch/btc-sanctions/internal/domain"
	"github.com/ledgerwatch/btc-sanctions/internal/indexer"
	"github.com/ledgerwatch/btc-sanctions/internal/sanctions"
	"github.com/ledgerwatch/btc-sanctions/internal/walker"
)

func newTestTransactionScreener(t *testing.T) (*TransactionScreener, *indexer.FakeClient) {
	t.Helper()
	index := sanctions.New(staticSource{doc: []byte(sanctionsDoc)})
	client := indexer.NewFakeClient()
	logger := zap.NewNop()
	w := walker.New(index, client, logger)
	auditLog := audit.New(t.TempDir(), logger)
	addrScreener := NewAddressScreener(index, w, auditLog, logger)
	return NewTransactionScreener(client, addrScreener, auditLog, logger), client
}

const validTxHash = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda334"

func TestTransactionScreener_Screen_FlagsSanctionedOutput(t *testing.T) {
	s, client := newTestTransactionScreener(t)
	client.SeedTransaction(&domain.BitcoinTransaction{
		TxID:    validTxHash,
		Inputs:  []domain.TxInput{{Addresses: []string{"3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"}, ValueSats: 1000}},
		Outputs: []domain.TxOutput{{Addresses: []string{"1BoatSLRHtKNngkdXEeobR76b53LETtpyT"}, ValueSats: 1000}},
	})

	result, err := s.Screen(context.Background(), validTxHash, domain.DirectionBoth, false, "corr-1")
	require.NoError(t, err)

	require.Len(t, result.SanctionMatches, 1)
	assert.Equal(t, domain.RiskHigh, result.OverallRiskLevel)
	assert.Nil(t, result.Transaction)
}

func TestTransactionScreener_Screen_IncludeMetadata(t *testing.T) {
	s, client := newTestTransactionScreener(t)
	client.SeedTransaction(&domain.BitcoinTransaction{
		TxID:    validTxHash,
		Inputs:  []domain.TxInput{{Addresses: []string{"3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"}, ValueSats: 1000}},
		Outputs: []domain.TxOutput{{Addresses: []string{"3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"}, ValueSats: 1000}},
	})

	result, err := s.Screen(context.Background(), validTxHash, domain.DirectionInputs, true, "corr-2")
	require.NoError(t, err)
	require.NotNil(t, result.Transaction)
	assert.Equal(t, validTxHash, result.Transaction.TxID)
}

func TestTransactionScreener_Screen_InvalidHash(t *testing.T) {
	s, _ := newTestTransactionScreener(t)
	_, err := s.Screen(context.Background(), "not-a-hash", domain.DirectionBoth, false, "corr-3")
	require.Error(t, err)
}

func TestNormalizeDirection(t *testing.T) {
	assert.Equal(t, domain.DirectionInputs, normalizeDirection("incoming"))
	assert.Equal(t, domain.DirectionOutputs, normalizeDirection("outgoing"))
	assert.Equal(t, domain.DirectionBoth, normalizeDirection(domain.DirectionBoth))
}

func TestAggregate_NoResultsUsesCompleteness(t *testing.T) {
	score, confidence := aggregate(nil, 0)
	assert.Equal(t, 0, score)
	assert.Equal(t, 80, confidence)

	score, confidence = aggregate(nil, 4)
	assert.Equal(t, 0, score)
	assert.Equal(t, 60, confidence)
}

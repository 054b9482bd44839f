package indexer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/btc-sanctions/internal/apperr"
	"github.com/ledgerwatch/btc-sanctions/internal/domain"
)

func TestFakeClient_GetTransaction(t *testing.T) {
	c := NewFakeClient()
	tx := &domain.BitcoinTransaction{TxID: "abc"}
	c.SeedTransaction(tx)

	got, err := c.GetTransaction(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.TxID)

	_, err = c.GetTransaction(context.Background(), "missing")
	assert.Equal(t, apperr.DataNotFound, apperr.KindOf(err))
}

func TestFakeClient_FailTxIDs(t *testing.T) {
	c := NewFakeClient()
	c.SeedTransaction(&domain.BitcoinTransaction{TxID: "abc"})
	c.FailTxIDs["abc"] = true

	_, err := c.GetTransaction(context.Background(), "abc")
	assert.Equal(t, apperr.ExternalAPI, apperr.KindOf(err))
}

func TestFakeClient_FailAddresses(t *testing.T) {
	c := NewFakeClient()
	c.SeedAddressTransactions("addr1", []string{"t1"})
	c.FailAddresses["addr1"] = true

	_, err := c.GetAddressTransactions(context.Background(), "addr1", 10)
	assert.Equal(t, apperr.ExternalAPI, apperr.KindOf(err))
}

func TestFakeClient_GetAddressTransactions_ClampsLimit(t *testing.T) {
	c := NewFakeClient()
	c.SeedAddressTransactions("addr1", []string{"t1", "t2", "t3"})

	got, err := c.GetAddressTransactions(context.Background(), "addr1", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, got)
}

func TestFakeClient_GetAddressInfo_DefaultsWhenUnseeded(t *testing.T) {
	c := NewFakeClient()
	info, err := c.GetAddressInfo(context.Background(), "unseeded")
	require.NoError(t, err)
	assert.Equal(t, "unseeded", info.Address)
	assert.Zero(t, info.TxCount)
}

func TestExtractAddresses(t *testing.T) {
	tx := &domain.BitcoinTransaction{
		Inputs: []domain.TxInput{
			{Addresses: []string{"a", "b"}},
		},
		Outputs: []domain.TxOutput{
			{Addresses: []string{"b", "c"}},
		},
	}
	assert.Equal(t, []string{"a", "b", "c"}, ExtractAddresses(tx))
}

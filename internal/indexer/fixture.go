package indexer

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ledgerwatch/btc-sanctions/internal/domain"
)

// fixtureDocument is the YAML shape a local demo deployment uses to seed
// a FakeClient with transactions and address histories instead of
// talking to a real indexer.
type fixtureDocument struct {
	Transactions []struct {
		TxID   string `yaml:"txid"`
		Height int64  `yaml:"blockHeight"`
		Time   int64  `yaml:"blockTime"`
		Fee    int64  `yaml:"feeSats"`
		Inputs []struct {
			PrevTxID  string   `yaml:"prevTxid"`
			PrevVout  int      `yaml:"prevVout"`
			Addresses []string `yaml:"addresses"`
			ValueSats int64    `yaml:"valueSats"`
		} `yaml:"inputs"`
		Outputs []struct {
			Addresses []string `yaml:"addresses"`
			ValueSats int64    `yaml:"valueSats"`
		} `yaml:"outputs"`
	} `yaml:"transactions"`
	AddressTransactions map[string][]string `yaml:"addressTransactions"`
}

// LoadFixture reads a YAML fixture file and seeds a FakeClient from it.
func LoadFixture(path string) (*FakeClient, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc fixtureDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}

	client := NewFakeClient()
	for _, t := range doc.Transactions {
		tx := &domain.BitcoinTransaction{
			TxID:        t.TxID,
			BlockHeight: t.Height,
			BlockTime:   t.Time,
			FeeSats:     t.Fee,
		}
		for _, in := range t.Inputs {
			tx.Inputs = append(tx.Inputs, domain.TxInput{
				PrevTxID:  in.PrevTxID,
				PrevVout:  in.PrevVout,
				Addresses: in.Addresses,
				ValueSats: in.ValueSats,
			})
		}
		for _, out := range t.Outputs {
			tx.Outputs = append(tx.Outputs, domain.TxOutput{
				Addresses: out.Addresses,
				ValueSats: out.ValueSats,
			})
		}
		client.SeedTransaction(tx)
	}
	for addr, txids := range doc.AddressTransactions {
		client.SeedAddressTransactions(addr, txids)
	}
	return client, nil
}

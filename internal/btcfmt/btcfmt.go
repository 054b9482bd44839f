// Package btcfmt formats satoshi amounts as decimal BTC strings for
// human-facing output (audit entries, path-node summaries). It exists so
// sat-to-BTC division never goes through floating point.
package btcfmt

import "github.com/shopspring/decimal"

var satsPerBTC = decimal.NewFromInt(100_000_000)

// Sats formats a satoshi amount as a BTC-denominated decimal string.
func Sats(sats int64) string {
	return decimal.NewFromInt(sats).DivRound(satsPerBTC, 8).String()
}

// SumSats formats the sum of several satoshi amounts as a BTC string.
func SumSats(amounts ...int64) string {
	var total int64
	for _, a := range amounts {
		total += a
	}
	return Sats(total)
}

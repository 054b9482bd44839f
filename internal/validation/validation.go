// Package validation holds the pure, dependency-free input checks every
// screening entrypoint runs before touching the sanctions index or the
// indexer client.
package validation

import "regexp"

var (
	base58AddrPattern = regexp.MustCompile(`^[13][1-9A-HJ-NP-Za-km-z]{25,34}$`)
	bech32AddrPattern = regexp.MustCompile(`^bc1[a-z0-9]{39,59}$`)
	txHashPattern     = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// IsValidAddress reports whether s matches a legacy, P2SH, or Bech32
// Bitcoin address pattern. Bech32 addresses must be entirely lower case;
// a mixed-case bech32-shaped string is rejected rather than folded.
func IsValidAddress(s string) bool {
	if base58AddrPattern.MatchString(s) {
		return true
	}
	return bech32AddrPattern.MatchString(s)
}

// IsValidTxHash reports whether s is a 64-character hex string.
func IsValidTxHash(s string) bool {
	return txHashPattern.MatchString(s)
}

// IdentifierKind distinguishes a validated address from a validated
// transaction hash.
type IdentifierKind string

const (
	KindAddress IdentifierKind = "ADDRESS"
	KindTx      IdentifierKind = "TX"
)

// ClassifyIdentifier reports which shape s matches, if any.
func ClassifyIdentifier(s string) (IdentifierKind, bool) {
	if IsValidAddress(s) {
		return KindAddress, true
	}
	if IsValidTxHash(s) {
		return KindTx, true
	}
	return "", false
}

package btcfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSats(t *testing.T) {
	assert.Equal(t, "0.00000001", Sats(1))
	assert.Equal(t, "1", Sats(100_000_000))
	assert.Equal(t, "0", Sats(0))
}

func TestSumSats(t *testing.T) {
	assert.Equal(t, "1.5", SumSats(100_000_000, 50_000_000))
	assert.Equal(t, "0", SumSats())
}

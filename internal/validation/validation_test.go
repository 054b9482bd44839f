package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("1BoatSLRHtKNngkdXEeobR76b53LETtpyT"))
	assert.True(t, IsValidAddress("3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"))
	assert.True(t, IsValidAddress("bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"))

	assert.False(t, IsValidAddress("BC1QAR0SRRR7XFKVY5L643LYDNW9RE59GTZZWF5MDQ"))
	assert.False(t, IsValidAddress("not-an-address"))
	assert.False(t, IsValidAddress(""))
}

func TestIsValidTxHash(t *testing.T) {
	valid := "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda334"
	assert.True(t, IsValidTxHash(valid))
	assert.False(t, IsValidTxHash(valid[:63]))
	assert.False(t, IsValidTxHash("zz5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda334"))
}

func TestClassifyIdentifier(t *testing.T) {
	kind, ok := ClassifyIdentifier("1BoatSLRHtKNngkdXEeobR76b53LETtpyT")
	assert.True(t, ok)
	assert.Equal(t, KindAddress, kind)

	kind, ok = ClassifyIdentifier("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda334")
	assert.True(t, ok)
	assert.Equal(t, KindTx, kind)

	_, ok = ClassifyIdentifier("garbage")
	assert.False(t, ok)
}

package sanctions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	doc []byte
}

func (s staticSource) Load() ([]byte, error) {
	return s.doc, nil
}

const fixtureDoc = `{
	"metadata": {
		"source": "OFAC SDN",
		"lastUpdated": "2026-01-01",
		"version": "1",
		"totalEntities": 1,
		"cryptocurrencies": {"BTC": 2}
	},
	"entities": [
		{
			"entityId": "E-1",
			"entityName": "Evil Exchange",
			"entityType": "ENTITY",
			"program": "CYBER2",
			"cryptocurrency": "BTC",
			"address": "1BoatSLRHtKNngkdXEeobR76b53LETtpyT",
			"remarks": "a.k.a. 'Shady Exchange'",
			"isActive": true
		},
		{
			"entityId": "E-1",
			"entityName": "Evil Exchange",
			"entityType": "ENTITY",
			"program": "CYBER2",
			"cryptocurrency": "BTC",
			"address": "1BOATSLRHTKNNGKDXEEOBR76B53LETTPYT",
			"remarks": "",
			"isActive": true
		},
		{
			"entityId": "E-2",
			"entityName": "Retired Actor",
			"entityType": "ENTITY",
			"program": "CYBER2",
			"cryptocurrency": "BTC",
			"address": "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy",
			"remarks": "",
			"isActive": false
		}
	]
}`

func TestIndex_FindByAddress(t *testing.T) {
	ix := New(staticSource{doc: []byte(fixtureDoc)})

	matches, err := ix.FindByAddress("1BoatSLRHtKNngkdXEeobR76b53LETtpyT")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "E-1", matches[0].EntityID)
	assert.Contains(t, matches[0].Aliases, "Shady Exchange")

	// Case-insensitive and deduplicated across two entity rows.
	assert.Len(t, matches[0].Addresses, 1)

	matches, err = ix.FindByAddress("1BOATSLRHTKNNGKDXEEOBR76B53LETTPYT")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "E-1", matches[0].EntityID)
}

func TestIndex_InactiveEntityExcluded(t *testing.T) {
	ix := New(staticSource{doc: []byte(fixtureDoc)})

	matches, err := ix.FindByAddress("3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestIndex_SearchByName(t *testing.T) {
	ix := New(staticSource{doc: []byte(fixtureDoc)})

	results, err := ix.SearchByName("shady")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "E-1", results[0].EntityID)
}

func TestIndex_Metadata(t *testing.T) {
	ix := New(staticSource{doc: []byte(fixtureDoc)})

	meta, err := ix.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "OFAC SDN", meta.Source)
	assert.Equal(t, 1, meta.TotalEntities)
}

func TestIndex_UnknownAddress(t *testing.T) {
	ix := New(staticSource{doc: []byte(fixtureDoc)})

	matches, err := ix.FindByAddress("bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

package records

import (
	"testing"

	"github.com/SaiNageswarS/extract-boot/internalerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overlayBase = `{"records":[
	{"id":1,"firstName":"Ada","lastName":"Lovelace","jobTitle":null,"isCsm":false},
	{"id":2,"firstName":"Alan","lastName":"Turing","jobTitle":"Fellow","isCsm":false}
]}`

func TestMergeOverlaysAppliesOwnedFields(t *testing.T) {
	titles := Overlay{
		Name:   "titleOverlay",
		Fields: []string{"personalTitle", "jobTitle"},
		JSON:   `{"records":[{"id":1,"personalTitle":"Countess","jobTitle":"Analyst"}]}`,
	}
	flags := Overlay{
		Name:   "csmOverlay",
		Fields: []string{"isCsm"},
		JSON:   `{"records":[{"id":1,"isCsm":true},{"id":2,"isCsm":true}]}`,
	}

	merged, err := MergeOverlays(overlayBase, titles, flags)
	require.NoError(t, err)

	recs := decodeRecords(t, merged)
	assert.Equal(t, "Analyst", recs[0]["jobTitle"])
	assert.Equal(t, "Countess", recs[0]["personalTitle"])
	assert.Equal(t, true, recs[0]["isCsm"])

	// No overlay entry for id 2 in titles: base values untouched.
	assert.Equal(t, "Fellow", recs[1]["jobTitle"])
	assert.Equal(t, true, recs[1]["isCsm"])

	// Base stays authoritative for fields no overlay owns.
	assert.Equal(t, "Ada", recs[0]["firstName"])
}

func TestMergeOverlaysNullValuesDoNotOverwrite(t *testing.T) {
	titles := Overlay{
		Name:   "titleOverlay",
		Fields: []string{"jobTitle"},
		JSON:   `{"records":[{"id":2,"jobTitle":null}]}`,
	}

	merged, err := MergeOverlays(overlayBase, titles)
	require.NoError(t, err)

	recs := decodeRecords(t, merged)
	assert.Equal(t, "Fellow", recs[1]["jobTitle"])
}

func TestMergeOverlaysOrderIndependent(t *testing.T) {
	titles := Overlay{Name: "a", Fields: []string{"jobTitle"}, JSON: `{"records":[{"id":1,"jobTitle":"Analyst"}]}`}
	flags := Overlay{Name: "b", Fields: []string{"isCsm"}, JSON: `{"records":[{"id":1,"isCsm":true}]}`}

	forward, err := MergeOverlays(overlayBase, titles, flags)
	require.NoError(t, err)
	reverse, err := MergeOverlays(overlayBase, flags, titles)
	require.NoError(t, err)

	assert.JSONEq(t, forward, reverse)
}

func TestMergeOverlaysIdempotent(t *testing.T) {
	titles := Overlay{Name: "a", Fields: []string{"jobTitle"}, JSON: `{"records":[{"id":1,"jobTitle":"Analyst"}]}`}

	once, err := MergeOverlays(overlayBase, titles)
	require.NoError(t, err)
	twice, err := MergeOverlays(once, titles)
	require.NoError(t, err)

	assert.JSONEq(t, once, twice)
}

func TestMergeOverlaysSkipsUnparsableOverlay(t *testing.T) {
	broken := Overlay{Name: "broken", Fields: []string{"jobTitle"}, JSON: "not json"}

	merged, err := MergeOverlays(overlayBase, broken)
	require.NoError(t, err)
	assert.JSONEq(t, overlayBase, merged)
}

func TestMergeOverlaysUnparsableBase(t *testing.T) {
	_, err := MergeOverlays("garbage")
	assert.ErrorIs(t, err, internalerr.ErrParse)
}

package compare

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stopgo/internal/capture"
)

func mustParse(t *testing.T, s string) capture.Value {
	t.Helper()
	v, err := capture.ParseValue([]byte(s))
	require.NoError(t, err)
	return v
}

func TestStatesMatch(t *testing.T) {
	a := mustParse(t, `{"turn":3,"players":[{"life":20},{"life":12}]}`)
	b := mustParse(t, `{"players":[{"life":20},{"life":12}],"turn":3}`)

	d := States(a, b)
	assert.True(t, d.Matches)
	assert.Empty(t, d.Entries)
}

func TestStatesLeafMismatch(t *testing.T) {
	a := mustParse(t, `{"players":[{"life":20},{"life":12}]}`)
	b := mustParse(t, `{"players":[{"life":20},{"life":13}]}`)

	d := States(a, b)
	require.False(t, d.Matches)
	require.Len(t, d.Entries, 1)
	assert.Equal(t, "$.players[1].life: 12 (continuous) != 13 (segmented)", d.Entries[0])
}

func TestStatesMissingKey(t *testing.T) {
	a := mustParse(t, `{"turn":3,"stack":[]}`)
	b := mustParse(t, `{"turn":3}`)

	d := States(a, b)
	require.False(t, d.Matches)
	require.Len(t, d.Entries, 1)
	assert.Equal(t, "$.stack: only in continuous: []", d.Entries[0])
}

func TestStatesExtraKey(t *testing.T) {
	a := mustParse(t, `{"turn":3}`)
	b := mustParse(t, `{"turn":3,"phase":"end"}`)

	d := States(a, b)
	require.False(t, d.Matches)
	require.Len(t, d.Entries, 1)
	assert.Equal(t, `$.phase: only in segmented: "end"`, d.Entries[0])
}

func TestStatesArrayLengthMismatch(t *testing.T) {
	a := mustParse(t, `{"stack":[1,2,3]}`)
	b := mustParse(t, `{"stack":[1,2]}`)

	d := States(a, b)
	require.False(t, d.Matches)
	require.Len(t, d.Entries, 1)
	assert.Equal(t, "$.stack: length 3 (continuous) != 2 (segmented)", d.Entries[0])
}

func TestStatesTypeMismatch(t *testing.T) {
	a := mustParse(t, `{"winner":null}`)
	b := mustParse(t, `{"winner":"Alice"}`)

	d := States(a, b)
	require.False(t, d.Matches)
	require.Len(t, d.Entries, 1)
	assert.Equal(t, `$.winner: null (continuous) != "Alice" (segmented)`, d.Entries[0])
}

func TestStatesEntriesInCanonicalOrder(t *testing.T) {
	a := mustParse(t, `{"zebra":1,"alpha":1,"mid":1}`)
	b := mustParse(t, `{"zebra":2,"alpha":2,"mid":2}`)

	d := States(a, b)
	require.Len(t, d.Entries, 3)
	assert.Contains(t, d.Entries[0], "$.alpha")
	assert.Contains(t, d.Entries[1], "$.mid")
	assert.Contains(t, d.Entries[2], "$.zebra")
}

func TestStatesTruncation(t *testing.T) {
	big := capture.Object{}
	bigOther := capture.Object{}
	for i := 0; i < maxStateEntries+10; i++ {
		k := fmt.Sprintf("field_%02d", i)
		big[k] = capture.Number("1")
		bigOther[k] = capture.Number("2")
	}

	d := States(big, bigOther)
	require.False(t, d.Matches)
	assert.Len(t, d.Entries, maxStateEntries)
	assert.True(t, d.Truncated)
}

func TestStatesRootScalar(t *testing.T) {
	d := States(capture.Number("1"), capture.Number("2"))
	require.False(t, d.Matches)
	assert.Equal(t, "$: 1 (continuous) != 2 (segmented)", d.Entries[0])
}

package compare

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("action %d", i)
	}
	return out
}

func TestSequencesMatch(t *testing.T) {
	a := []string{"Turn 1", "Alice draws a card", "Game Over"}
	b := []string{"Turn 1", "Alice draws a card", "Game Over"}

	d := Sequences(a, b)
	assert.True(t, d.Matches)
	assert.False(t, d.Degenerate)
	assert.Equal(t, -1, d.FirstDivergingIndex)
	assert.Equal(t, 3, d.LenA)
	assert.Equal(t, 3, d.LenB)
}

func TestSequencesDivergenceLocalized(t *testing.T) {
	a := seq(20)
	b := seq(20)
	b[13] = "corrupted"

	d := Sequences(a, b)
	require.False(t, d.Matches)
	assert.False(t, d.Degenerate)
	assert.Equal(t, 13, d.FirstDivergingIndex)
	assert.Equal(t, "action 13", d.SideA)
	assert.Equal(t, "corrupted", d.SideB)

	// Five matching entries of context precede the divergence.
	assert.Equal(t, a[8:13], d.Context)
	assert.Equal(t, a[14:20], d.TrailingA)
	assert.Equal(t, b[14:20], d.TrailingB)
}

func TestSequencesDivergenceNearStart(t *testing.T) {
	a := []string{"x", "y"}
	b := []string{"x", "z"}

	d := Sequences(a, b)
	require.False(t, d.Matches)
	assert.Equal(t, 1, d.FirstDivergingIndex)
	assert.Equal(t, []string{"x"}, d.Context)
}

func TestSequencesPrefix(t *testing.T) {
	a := seq(10)
	b := seq(7)

	d := Sequences(a, b)
	require.False(t, d.Matches)
	assert.Equal(t, 7, d.FirstDivergingIndex)
	assert.Equal(t, "action 7", d.SideA)
	assert.Equal(t, "", d.SideB, "shorter side ended")
	assert.Equal(t, a[8:10], d.TrailingA)
	assert.Empty(t, d.TrailingB)
}

func TestSequencesTrailingBounded(t *testing.T) {
	a := seq(3)
	b := seq(40)

	d := Sequences(a, b)
	require.False(t, d.Matches)
	assert.Equal(t, 3, d.FirstDivergingIndex)
	assert.Len(t, d.TrailingB, maxTrailing)
}

func TestSequencesDegenerate(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
	}{
		{"both empty", nil, nil},
		{"continuous empty", nil, seq(3)},
		{"segmented empty", seq(3), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Sequences(tt.a, tt.b)
			// An empty filtered log is a hard failure, never a pass.
			assert.False(t, d.Matches)
			assert.True(t, d.Degenerate)
		})
	}
}

package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTranscript = `Turn 1
Alice's turn
Alice draws a card
>>> RANDOM: chose 1 (ability 0)
Alice plays Mountain
>>> RANDOM: chose no attackers
Bob's turn
Bob draws a card
>>> HEURISTIC: chose 2
Bob casts Giant Growth
Stopping after 3 choices
Snapshot created
Resuming from snapshot
Turn number: restored
Alice (active)
>>> RANDOM: chose 0 (pass priority)
Life: Alice 20, Bob 12
Alice wins!
Game Over`

func TestParseDecisions(t *testing.T) {
	x := NewExtractor("Alice", "Bob")
	result := x.Parse(sampleTranscript)

	require.Len(t, result.Decisions, 4)
	assert.Zero(t, result.Unparsed)

	// Sequence indexes track order of appearance.
	for i, d := range result.Decisions {
		assert.Equal(t, i, d.SequenceIndex)
	}

	assert.Equal(t, []int{1, 0, 0}, result.Choices(P1))
	assert.Equal(t, []int{2}, result.Choices(P2))
	assert.Equal(t, 4, result.TotalDecisions())
}

func TestParseOwnerCursor(t *testing.T) {
	x := NewExtractor("Alice", "Bob")
	result := x.Parse(sampleTranscript)

	owners := make([]Player, 0, len(result.Decisions))
	for _, d := range result.Decisions {
		owners = append(owners, d.Owner)
	}
	// Third decision follows "Bob's turn"; fourth follows the
	// "Alice (active)" marker after resume.
	assert.Equal(t, []Player{P1, P1, P2, P1}, owners)
}

func TestParseDecisionBeforeAnyOwnerMarker(t *testing.T) {
	x := NewExtractor("Alice", "Bob")
	result := x.Parse(">>> RANDOM: chose 1\nAlice's turn\n>>> RANDOM: chose 2")

	require.Len(t, result.Decisions, 2)
	assert.Equal(t, PlayerUnknown, result.Decisions[0].Owner)
	assert.Equal(t, P1, result.Decisions[1].Owner)
}

func TestParseActionsFiltered(t *testing.T) {
	x := NewExtractor("Alice", "Bob")
	result := x.Parse(sampleTranscript)

	// Suspend/resume notices are excluded even though "Resuming turn"
	// style lines can contain vocabulary words.
	joined := strings.Join(result.Actions, "\n")
	assert.NotContains(t, joined, "Stopping")
	assert.NotContains(t, joined, "Snapshot")
	assert.NotContains(t, joined, "Resuming")
	assert.NotContains(t, joined, "Turn number:")

	assert.Contains(t, result.Actions, "Alice draws a card")
	assert.Contains(t, result.Actions, "Alice plays Mountain")
	assert.Contains(t, result.Actions, "Bob casts Giant Growth")
	assert.Contains(t, result.Actions, "Life: Alice 20, Bob 12")
	assert.Contains(t, result.Actions, "Alice wins!")
	assert.Contains(t, result.Actions, "Game Over")

	// Decision announcements are not actions.
	for _, a := range result.Actions {
		assert.NotContains(t, a, ">>>")
	}
}

func TestParseExclusionBeatsInclusion(t *testing.T) {
	x := NewExtractor("Alice", "Bob")
	result := x.Parse("Resuming Turn 4 after snapshot restore")

	assert.Empty(t, result.Actions)
}

func TestParseGameOver(t *testing.T) {
	x := NewExtractor("Alice", "Bob")

	assert.True(t, x.Parse("Game Over").GameOver)
	assert.True(t, x.Parse("Bob wins!").GameOver)
	assert.False(t, x.Parse("Turn 5\nAlice draws a card").GameOver)
}

func TestParseChoseNoAttackers(t *testing.T) {
	x := NewExtractor("Alice", "Bob")
	result := x.Parse("Alice's turn\n>>> RANDOM: chose no attackers")

	require.Len(t, result.Decisions, 1)
	assert.Equal(t, 0, result.Decisions[0].SelectedOption)
}

func TestParseUnparsedDecisionCounted(t *testing.T) {
	x := NewExtractor("Alice", "Bob")
	result := x.Parse(">>> RANDOM: picked something odd\n>>> HEURISTIC: chose 3")

	require.Len(t, result.Decisions, 1)
	assert.Equal(t, 3, result.Decisions[0].SelectedOption)
	assert.Equal(t, 1, result.Unparsed)
}

func TestParseAllStrategyMarkers(t *testing.T) {
	transcript := `>>> RANDOM: chose 1
>>> HEURISTIC: chose 2
>>> ZERO: chose 0
>>> REPLAY: chose 3`

	x := NewExtractor("Alice", "Bob")
	result := x.Parse(transcript)

	require.Len(t, result.Decisions, 4)
	options := make([]int, 0, 4)
	for _, d := range result.Decisions {
		options = append(options, d.SelectedOption)
	}
	assert.Equal(t, []int{1, 2, 0, 3}, options)
}

func TestParseIdempotent(t *testing.T) {
	x := NewExtractor("Alice", "Bob")
	a := x.Parse(sampleTranscript)
	b := x.Parse(sampleTranscript)

	assert.Equal(t, a, b)
}

func TestParseEmptyTranscript(t *testing.T) {
	x := NewExtractor("Alice", "Bob")
	result := x.Parse("")

	assert.Empty(t, result.Decisions)
	assert.Empty(t, result.Actions)
	assert.False(t, result.GameOver)
	assert.Zero(t, result.TotalDecisions())
}

func TestContainsTerminal(t *testing.T) {
	assert.True(t, ContainsTerminal("blah\nGame Over\n"))
	assert.True(t, ContainsTerminal("Alice wins!"))
	assert.False(t, ContainsTerminal("Turn 9\nAlice draws a card"))
}

// Package plan generates randomized, valid checkpoint schedules for
// segmented execution.
//
// A plan partitions a run of totalDecisions combined controller
// decisions into segments. Every non-terminal segment advances by at
// least one decision (progress at every checkpoint) and the terminal
// segment always runs to completion, so the non-terminal lengths sum to
// strictly less than totalDecisions. Plans are a pure function of the
// seed, which makes failing trials reproducible.
package plan

import (
	"fmt"
	"math/rand"
	"strings"
)

// Segment is one contiguous portion of a segmented run.
type Segment struct {
	// Offset is the combined decision count already consumed when this
	// segment starts.
	Offset int

	// Length is how many more combined decisions to run before
	// suspending. Zero means run to completion (terminal segment).
	Length int
}

// Terminal reports whether this segment runs to completion.
func (s Segment) Terminal() bool { return s.Length == 0 }

// Plan is an ordered sequence of segments ending in exactly one
// terminal segment.
type Plan struct {
	Segments []Segment

	// TotalDecisions is the combined decision count the plan was built
	// for.
	TotalDecisions int
}

// Stops returns the non-terminal segment lengths, in order.
func (p *Plan) Stops() []int {
	var out []int
	for _, s := range p.Segments {
		if !s.Terminal() {
			out = append(out, s.Length)
		}
	}
	return out
}

// String renders the plan compactly, e.g. "3+2+1+rest of 12".
func (p *Plan) String() string {
	var parts []string
	for _, s := range p.Segments {
		if s.Terminal() {
			parts = append(parts, "rest")
		} else {
			parts = append(parts, fmt.Sprintf("%d", s.Length))
		}
	}
	return fmt.Sprintf("%s of %d", strings.Join(parts, "+"), p.TotalDecisions)
}

// New produces a randomized plan for totalDecisions combined decisions
// with up to targetStops suspend points.
//
// The effective stop count is clamped to min(targetStops,
// max(1, totalDecisions-1)) so every non-terminal segment advances by at
// least one decision and at least one decision remains for the terminal
// segment. Each stop draws a uniform advance in [1, min(2*perStop,
// remaining)], where remaining reserves one decision per still
// unscheduled stop. Degenerate draws fall back to a single one-decision
// first segment.
//
// totalDecisions must be >= 1; the zero-decision case is the caller's
// degenerate path (run continuously, no segmentation).
func New(totalDecisions, targetStops int, rng *rand.Rand) (*Plan, error) {
	if totalDecisions < 1 {
		return nil, fmt.Errorf("plan: totalDecisions must be >= 1, got %d", totalDecisions)
	}
	if targetStops < 1 {
		return nil, fmt.Errorf("plan: targetStops must be >= 1, got %d", targetStops)
	}

	stops := targetStops
	if maxStops := totalDecisions - 1; stops > maxStops {
		stops = maxStops
	}
	if stops < 1 {
		stops = 1
	}

	perStop := totalDecisions / (stops + 1)
	if perStop < 1 {
		perStop = 1
	}

	var lengths []int
	cumulative := 0
	for i := 0; i < stops; i++ {
		// Reserve one decision for each stop not yet scheduled.
		remaining := totalDecisions - cumulative - (stops - i)
		if remaining <= 0 {
			break
		}
		bound := 2 * perStop
		if bound > remaining {
			bound = remaining
		}
		advance := 1 + rng.Intn(bound)
		cumulative += advance
		lengths = append(lengths, advance)
	}

	if len(lengths) == 0 {
		lengths = []int{1}
		cumulative = 1
	}

	p := &Plan{TotalDecisions: totalDecisions}
	offset := 0
	for _, n := range lengths {
		p.Segments = append(p.Segments, Segment{Offset: offset, Length: n})
		offset += n
	}
	p.Segments = append(p.Segments, Segment{Offset: offset, Length: 0})

	return p, nil
}

// Validate checks plan invariants: strictly increasing offsets, positive
// non-terminal lengths summing to < TotalDecisions, exactly one terminal
// segment in final position.
func (p *Plan) Validate() error {
	if len(p.Segments) == 0 {
		return fmt.Errorf("plan: no segments")
	}

	sum := 0
	for i, s := range p.Segments {
		last := i == len(p.Segments)-1
		if last {
			if !s.Terminal() {
				return fmt.Errorf("plan: final segment must be terminal, got length %d", s.Length)
			}
		} else {
			if s.Length < 1 {
				return fmt.Errorf("plan: segment %d has non-positive length %d", i, s.Length)
			}
		}
		if s.Offset != sum {
			return fmt.Errorf("plan: segment %d offset %d, want %d", i, s.Offset, sum)
		}
		sum += s.Length
	}

	// The draw process keeps sum < TotalDecisions; the single-decision
	// fallback on a 1-decision trace reaches sum == TotalDecisions.
	if sum > p.TotalDecisions {
		return fmt.Errorf("plan: stops consume %d of %d decisions", sum, p.TotalDecisions)
	}
	return nil
}

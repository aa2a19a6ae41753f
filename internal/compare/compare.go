// Package compare computes equivalence between a continuous run and a
// segmented run: positional equality of the filtered action sequences,
// and deep equality of the canonical states. Both axes must pass; each
// failure is reported independently with enough context to localize the
// divergence.
package compare

// contextWindow is how many preceding matching entries accompany a
// reported divergence.
const contextWindow = 5

// maxTrailing bounds the trailing extra entries reported when one
// sequence ends early.
const maxTrailing = 10

// SequenceDiff is the outcome of comparing two filtered action
// sequences position by position.
type SequenceDiff struct {
	// Matches is true iff both sequences are non-empty, equal in
	// length, and pairwise identical.
	Matches bool

	// Degenerate is true when either side is empty. An empty filtered
	// sequence is insufficient signal to certify determinism and is a
	// hard failure, reported distinctly from a content mismatch.
	Degenerate bool

	// FirstDivergingIndex is the first position where the sequences
	// differ or where one ends early. -1 when Matches.
	FirstDivergingIndex int

	// Context holds up to contextWindow matching entries preceding the
	// divergence.
	Context []string

	// SideA and SideB are the entries at the diverging index; empty
	// string means that side ended.
	SideA, SideB string

	// TrailingA and TrailingB are extra entries on the longer side
	// past the divergence, bounded by maxTrailing.
	TrailingA, TrailingB []string

	// LenA and LenB are the full sequence lengths.
	LenA, LenB int
}

// Sequences compares two action sequences. Side A is the continuous
// run, side B the segmented run.
func Sequences(a, b []string) *SequenceDiff {
	d := &SequenceDiff{
		FirstDivergingIndex: -1,
		LenA:                len(a),
		LenB:                len(b),
	}

	if len(a) == 0 || len(b) == 0 {
		d.Degenerate = true
		d.FirstDivergingIndex = 0
		return d
	}

	limit := len(a)
	if len(b) < limit {
		limit = len(b)
	}

	for i := 0; i < limit; i++ {
		if a[i] != b[i] {
			d.fillDivergence(a, b, i)
			return d
		}
	}

	if len(a) != len(b) {
		// One sequence is a strict prefix of the other.
		d.fillDivergence(a, b, limit)
		return d
	}

	d.Matches = true
	return d
}

func (d *SequenceDiff) fillDivergence(a, b []string, at int) {
	d.FirstDivergingIndex = at

	start := at - contextWindow
	if start < 0 {
		start = 0
	}
	d.Context = append(d.Context, a[start:at]...)

	if at < len(a) {
		d.SideA = a[at]
		d.TrailingA = trailing(a, at+1)
	}
	if at < len(b) {
		d.SideB = b[at]
		d.TrailingB = trailing(b, at+1)
	}
}

func trailing(s []string, from int) []string {
	if from >= len(s) {
		return nil
	}
	end := from + maxTrailing
	if end > len(s) {
		end = len(s)
	}
	return s[from:end]
}

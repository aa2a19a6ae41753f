package compare

import (
	"fmt"

	"github.com/roach88/stopgo/internal/capture"
)

// maxStateEntries bounds the structural diff so mismatch reports stay
// scannable.
const maxStateEntries = 20

// StateDiff is the outcome of comparing two canonical states.
type StateDiff struct {
	Matches bool

	// Entries are path-addressed differences, bounded by
	// maxStateEntries.
	Entries []string

	// Truncated is true when more differences exist than were
	// reported.
	Truncated bool
}

// States compares two canonical (already stripped) state values
// structurally. Side A is the continuous run, side B the segmented run.
func States(a, b capture.Value) *StateDiff {
	d := &StateDiff{}
	walkDiff(a, b, "$", d)
	d.Matches = len(d.Entries) == 0 && !d.Truncated
	return d
}

func (d *StateDiff) add(entry string) bool {
	if len(d.Entries) >= maxStateEntries {
		d.Truncated = true
		return false
	}
	d.Entries = append(d.Entries, entry)
	return true
}

// walkDiff records path-addressed differences between two value trees.
// Array positions are compared index by index; order is semantic.
func walkDiff(a, b capture.Value, path string, d *StateDiff) {
	if d.Truncated {
		return
	}

	av, aObj := a.(capture.Object)
	bv, bObj := b.(capture.Object)
	if aObj && bObj {
		// Union of keys, in canonical order for stable reports.
		merged := make(capture.Object, len(av)+len(bv))
		for k := range av {
			merged[k] = capture.Null{}
		}
		for k := range bv {
			merged[k] = capture.Null{}
		}
		for _, k := range merged.SortedKeys() {
			left, inA := av[k]
			right, inB := bv[k]
			childPath := path + "." + k
			switch {
			case !inA:
				d.add(fmt.Sprintf("%s: only in segmented: %s", childPath, render(right)))
			case !inB:
				d.add(fmt.Sprintf("%s: only in continuous: %s", childPath, render(left)))
			default:
				walkDiff(left, right, childPath, d)
			}
		}
		return
	}

	aArr, aIsArr := a.(capture.Array)
	bArr, bIsArr := b.(capture.Array)
	if aIsArr && bIsArr {
		limit := len(aArr)
		if len(bArr) < limit {
			limit = len(bArr)
		}
		for i := 0; i < limit; i++ {
			walkDiff(aArr[i], bArr[i], fmt.Sprintf("%s[%d]", path, i), d)
		}
		if len(aArr) != len(bArr) {
			d.add(fmt.Sprintf("%s: length %d (continuous) != %d (segmented)", path, len(aArr), len(bArr)))
		}
		return
	}

	if !capture.Equal(a, b) {
		d.add(fmt.Sprintf("%s: %s (continuous) != %s (segmented)", path, render(a), render(b)))
	}
}

// render serializes a value for a diff entry, truncated to keep lines
// readable.
func render(v capture.Value) string {
	data, err := capture.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<unrenderable: %v>", err)
	}
	const limit = 80
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

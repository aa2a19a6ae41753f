package compare

import (
	"fmt"
	"io"
)

// Report aggregates both comparison axes for one run pair. A log
// mismatch and a state mismatch are not mutually exclusive; both are
// surfaced together so operators see the full picture.
type Report struct {
	Log   *SequenceDiff
	State *StateDiff
}

// Pass reports whether both axes matched.
func (r *Report) Pass() bool {
	if r.Log != nil && !r.Log.Matches {
		return false
	}
	if r.State != nil && !r.State.Matches {
		return false
	}
	return true
}

// Render writes a human-readable report.
func (r *Report) Render(w io.Writer) {
	if r.Log != nil {
		renderLog(w, r.Log)
	}
	if r.State != nil {
		renderState(w, r.State)
	}
}

func renderLog(w io.Writer, d *SequenceDiff) {
	if d.Matches {
		fmt.Fprintf(w, "action log: match (%d actions)\n", d.LenA)
		return
	}

	if d.Degenerate {
		fmt.Fprintf(w, "action log: FAIL (degenerate: continuous has %d actions, segmented has %d; an empty filtered log cannot certify determinism)\n", d.LenA, d.LenB)
		return
	}

	fmt.Fprintf(w, "action log: FAIL at index %d (continuous %d actions, segmented %d)\n",
		d.FirstDivergingIndex, d.LenA, d.LenB)
	for _, line := range d.Context {
		fmt.Fprintf(w, "    = %s\n", line)
	}
	if d.SideA != "" {
		fmt.Fprintf(w, "    continuous: %s\n", d.SideA)
	} else {
		fmt.Fprintf(w, "    continuous: <ended>\n")
	}
	if d.SideB != "" {
		fmt.Fprintf(w, "    segmented:  %s\n", d.SideB)
	} else {
		fmt.Fprintf(w, "    segmented:  <ended>\n")
	}
	for _, line := range d.TrailingA {
		fmt.Fprintf(w, "    + continuous: %s\n", line)
	}
	for _, line := range d.TrailingB {
		fmt.Fprintf(w, "    + segmented:  %s\n", line)
	}
}

func renderState(w io.Writer, d *StateDiff) {
	if d.Matches {
		fmt.Fprintln(w, "final state: match")
		return
	}

	fmt.Fprintf(w, "final state: FAIL (%d difference(s))\n", len(d.Entries))
	for _, e := range d.Entries {
		fmt.Fprintf(w, "    %s\n", e)
	}
	if d.Truncated {
		fmt.Fprintln(w, "    ... (diff truncated)")
	}
}

// Package trace reconstructs a replayable decision trace and a filtered
// action sequence from a raw simulation transcript.
//
// The simulator is a black box: the only observable record of the
// decisions its controllers made is the verbose transcript. Extraction
// is order-preserving and idempotent - the same transcript always yields
// the same trace - but it cannot prove the trace is complete. Callers
// treat zero extracted decisions as a degenerate case.
package trace

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Player identifies a decision owner.
type Player int

const (
	// PlayerUnknown means no turn-owner marker preceded the decision.
	PlayerUnknown Player = iota
	P1
	P2
)

// String returns the conventional selector spelling (p1/p2).
func (p Player) String() string {
	switch p {
	case P1:
		return "p1"
	case P2:
		return "p2"
	default:
		return "unknown"
	}
}

// DecisionChoice is one controller decision recovered from a transcript.
type DecisionChoice struct {
	// SequenceIndex is the 0-based position among all recovered
	// decisions, in order of appearance.
	SequenceIndex int

	// Owner is derived from the most recent turn-owner marker.
	Owner Player

	// SelectedOption is the option index the controller chose.
	// Always >= 0; option 0 is "pass" / "no attackers".
	SelectedOption int
}

// Extract is the structured result of parsing one transcript.
type Extract struct {
	// Decisions holds all recovered choices in transcript order.
	Decisions []DecisionChoice

	// Actions is the filtered, order-significant action sequence.
	Actions []string

	// GameOver reports whether a terminal condition was observed.
	GameOver bool

	// Unparsed counts decision-announcement lines whose option index
	// could not be extracted. Nonzero values erode replay fidelity and
	// are logged as anomalies, but do not abort extraction.
	Unparsed int
}

// Choices returns the per-player option lists, in order. These seed the
// replay controllers for segmented execution.
func (e *Extract) Choices(owner Player) []int {
	var out []int
	for _, d := range e.Decisions {
		if d.Owner == owner {
			out = append(out, d.SelectedOption)
		}
	}
	return out
}

// TotalDecisions returns the combined decision count across both players.
func (e *Extract) TotalDecisions() int {
	return len(e.Decisions)
}

// decisionMarkers announce a controller decision for each recognized
// strategy. A strategy with a phrasing outside this set would silently
// under-count, so unmatched ">>>" lines are also reported as anomalies.
var decisionMarkers = []string{
	">>> RANDOM:",
	">>> HEURISTIC:",
	">>> ZERO:",
	">>> REPLAY:",
}

var choseRe = regexp.MustCompile(`chose (\d+)`)

// Extractor parses transcripts. The zero value is not usable; construct
// with NewExtractor.
type Extractor struct {
	p1Name string
	p2Name string
	logger *slog.Logger
}

// NewExtractor returns an Extractor keyed to the simulator's fixed
// player names.
func NewExtractor(p1Name, p2Name string) *Extractor {
	return &Extractor{
		p1Name: p1Name,
		p2Name: p2Name,
		logger: slog.Default(),
	}
}

// Parse walks the transcript once, maintaining a current-turn-owner
// cursor, and returns the decision trace, filtered action sequence, and
// terminal flag. Segmented transcripts must be concatenated in execution
// order before parsing.
func (x *Extractor) Parse(transcript string) *Extract {
	result := &Extract{}
	owner := PlayerUnknown

	for _, line := range strings.Split(transcript, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}

		// Turn-owner markers update the cursor for subsequent decisions.
		switch {
		case x.ownerMarker(stripped, x.p1Name):
			owner = P1
		case x.ownerMarker(stripped, x.p2Name):
			owner = P2
		}

		if x.decisionLine(stripped) {
			option, ok := extractOption(stripped)
			if !ok {
				result.Unparsed++
				x.logger.Warn("decision line with no parseable option index",
					"line", stripped, "owner", owner.String())
			} else {
				result.Decisions = append(result.Decisions, DecisionChoice{
					SequenceIndex:  len(result.Decisions),
					Owner:          owner,
					SelectedOption: option,
				})
			}
		}

		// Exclusion before inclusion: suspend/resume notices never
		// count as actions even when they contain vocabulary words.
		if isExcluded(stripped) {
			continue
		}
		if isAction(stripped) {
			result.Actions = append(result.Actions, stripped)
		}
		if isTerminal(stripped) {
			result.GameOver = true
		}
	}

	return result
}

// ownerMarker matches "<name>'s turn" and "<name> (active)".
func (x *Extractor) ownerMarker(line, name string) bool {
	return strings.Contains(line, name+"'s turn") ||
		strings.Contains(line, name+" (active)")
}

// decisionLine reports whether the line announces a controller decision.
func (x *Extractor) decisionLine(line string) bool {
	for _, m := range decisionMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// extractOption recovers the chosen option index from a decision line.
//
// Recognized phrasings:
//   - "chose no attackers" maps to option 0 (declining is always option 0)
//   - "chose N" yields N
func extractOption(line string) (int, bool) {
	if strings.Contains(line, "chose no attackers") {
		return 0, true
	}
	if m := choseRe.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

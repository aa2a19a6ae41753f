package trace

import "strings"

// Exclusion runs before inclusion: suspend/resume notices can contain
// vocabulary substrings ("Resuming turn 4") and must never be compared.
var excludeSubstrings = []string{
	"snapshot",
	"resuming",
	"stopping",
	"turn number:",
}

// actionKeywords is the semantic-action vocabulary. A transcript line is
// an ActionEvent iff it survives exclusion and contains at least one of
// these. Everything else is presentation noise.
var actionKeywords = []string{
	"draws ",
	"plays ",
	"casts ",
	"attacks ",
	"blocks ",
	"damage ",
	"dies",
	"destroyed",
	"sacrificed",
	"discards",
	"to graveyard",
	"Turn ",
	"wins!",
	"Game Over",
	"Life:",
	"Turns played:",
}

// terminalMarkers signal that the game reached a terminal condition.
var terminalMarkers = []string{
	"Game Over",
	"wins!",
}

// isExcluded reports whether a line is a suspend/resume/diagnostic
// notice that must not participate in comparison.
func isExcluded(line string) bool {
	lower := strings.ToLower(line)
	for _, s := range excludeSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// isAction reports whether a line matches the semantic-action vocabulary.
func isAction(line string) bool {
	for _, kw := range actionKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

// isTerminal reports whether a line announces game end.
func isTerminal(line string) bool {
	for _, m := range terminalMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// ContainsTerminal reports whether any line of a transcript announces
// game end. The driver uses this to stop resuming once the game is
// over.
func ContainsTerminal(transcript string) bool {
	return isTerminal(transcript)
}

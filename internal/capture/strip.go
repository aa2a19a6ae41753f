package capture

// incidentalFields is the denylist of field names that legitimately
// differ between a continuous run and a segmented run of the same game.
// They are stripped at any nesting depth before comparison.
//
//   - choice_id: global counter, increments differently around stop points
//   - undo_log, intra_turn_choices: replay/rewind bookkeeping, not game state
//   - logger, show_choice_menu, output_mode, output_format,
//     numeric_choices, step_header_printed: presentation layer
//   - p1_controller_state, p2_controller_state: controller-internal RNG and
//     replay cursors, differ between first play and replay
//   - lands_played_this_turn: turn-scoped counter that resets on resume
var incidentalFields = map[string]struct{}{
	"choice_id":              {},
	"undo_log":               {},
	"intra_turn_choices":     {},
	"logger":                 {},
	"show_choice_menu":       {},
	"output_mode":            {},
	"output_format":          {},
	"numeric_choices":        {},
	"step_header_printed":    {},
	"p1_controller_state":    {},
	"p2_controller_state":    {},
	"lands_played_this_turn": {},
}

// IsIncidental reports whether a field name is on the denylist.
func IsIncidental(key string) bool {
	_, ok := incidentalFields[key]
	return ok
}

// Strip returns a copy of v with every denylisted field removed, at any
// depth. Array order is preserved; arrays are never treated as sets.
// The input is not modified.
func Strip(v Value) Value {
	switch val := v.(type) {
	case Object:
		out := make(Object, len(val))
		for k, elem := range val {
			if IsIncidental(k) {
				continue
			}
			out[k] = Strip(elem)
		}
		return out
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = Strip(elem)
		}
		return out
	default:
		return v
	}
}

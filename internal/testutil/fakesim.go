// Package testutil provides test doubles for the harness.
//
// FakeSim materializes a small shell script that stands in for the
// simulation binary: it replays a fixed transcript while honoring the
// harness flag contract (--stop-every, --snapshot-output, --start-from,
// --save-final-state), so driver and runner tests exercise the real
// process-invocation path without the real engine.
package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// FakeSimOptions configures the generated stand-in binary.
type FakeSimOptions struct {
	// Transcript is the full continuous-run transcript, one line per
	// entry. Decision lines are those containing ">>>" and "chose".
	Transcript string

	// FinalState is the --save-final-state document written when a run
	// reaches the end of the transcript. Must not contain single
	// quotes.
	FinalState string

	// FailExit, when nonzero, makes every invocation print a line and
	// exit with this code.
	FailExit int

	// OmitSnapshot suppresses writing the snapshot file while still
	// exiting 0, simulating a missing-artifact driver failure.
	OmitSnapshot bool

	// Hang, when true, makes every invocation sleep long enough to
	// trip any sub-minute driver timeout.
	Hang bool

	// ResumeExtraLine, when set, is printed after every resume. Pick a
	// vocabulary line to inject a log divergence into segmented runs.
	ResumeExtraLine string

	// ResumedFinalState, when set, replaces FinalState for runs that
	// were resumed from a snapshot, injecting a state divergence.
	ResumedFinalState string
}

// DefaultTranscript is a 13-decision game between Alice and Bob in the
// simulator's transcript dialect.
const DefaultTranscript = `Turn 1
Alice's turn
Alice draws a card
>>> RANDOM: chose 1 (ability 0)
Alice plays Mountain
>>> RANDOM: chose 2 (ability 1)
Alice casts Lightning Bolt
Lightning Bolt deals 3 damage to Bob
>>> RANDOM: chose 0 (pass priority)
Bob's turn
Bob draws a card
>>> HEURISTIC: chose 1
Bob plays Forest
>>> HEURISTIC: chose 0
Turn 2
Alice's turn
Alice draws a card
>>> RANDOM: chose 3 (ability 2)
Alice casts Grizzly Bears
>>> RANDOM: chose no attackers
Bob's turn
Bob draws a card
>>> HEURISTIC: chose 2
Bob casts Giant Growth
>>> HEURISTIC: chose 0
Turn 3
Alice's turn
Alice draws a card
>>> RANDOM: chose 1 (ability 0)
Grizzly Bears attacks Bob
Grizzly Bears deals 2 damage to Bob
>>> RANDOM: chose 0 (pass priority)
Bob's turn
Bob draws a card
>>> HEURISTIC: chose 1
Bob discards Island
>>> HEURISTIC: chose 0
Life: Alice 20, Bob 12
Turns played: 3
Alice wins!
Game Over`

// DefaultFinalState pairs with DefaultTranscript. choice_id is
// incidental and varies with the replay cursor; everything under
// players/turn is semantic.
const DefaultFinalState = `{"game_state":{"choice_id":99,"players":[{"name":"Alice","life":20},{"name":"Bob","life":12}],"turn":3},"snapshot_meta":{"format_version":1}}`

// WriteFakeSim writes the stand-in script into dir and returns its
// path.
func WriteFakeSim(t *testing.T, dir string, opts FakeSimOptions) string {
	t.Helper()

	if opts.Transcript == "" {
		opts.Transcript = DefaultTranscript
	}
	if opts.FinalState == "" {
		opts.FinalState = DefaultFinalState
	}

	script := buildScript(opts)
	path := filepath.Join(dir, "fakesim.sh")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake sim: %v", err)
	}
	return path
}

func buildScript(opts FakeSimOptions) string {
	omit := "0"
	if opts.OmitSnapshot {
		omit = "1"
	}

	prelude := "#!/bin/sh\n"
	if opts.Hang {
		prelude += "sleep 120\n"
	}
	if opts.FailExit != 0 {
		prelude += "echo 'simulator crashed' >&2\nexit " + strconv.Itoa(opts.FailExit) + "\n"
	}

	resumeEcho := ""
	if opts.ResumeExtraLine != "" {
		resumeEcho = "  printf '%s\\n' '" + opts.ResumeExtraLine + "'\n"
	}

	resumedState := opts.ResumedFinalState
	if resumedState == "" {
		resumedState = opts.FinalState
	}

	return prelude + `STOP=0; SNAP=""; START=""; SAVE=""
OMIT=` + omit + `
RESUMED=0
for a in "$@"; do
  case "$a" in
    --stop-every=*) STOP="${a##*:}" ;;
    --snapshot-output=*) SNAP="${a#--snapshot-output=}" ;;
    --start-from=*) START="${a#--start-from=}" ;;
    --save-final-state=*) SAVE="${a#--save-final-state=}" ;;
  esac
done
CURSOR=0
if [ -n "$START" ]; then
  if [ ! -f "$START" ]; then
    echo "snapshot not found: $START" >&2
    exit 4
  fi
  CURSOR=$(sed -n 's/.*"cursor":\([0-9][0-9]*\).*/\1/p' "$START")
  if [ -z "$CURSOR" ]; then
    echo "malformed snapshot: $START" >&2
    exit 4
  fi
  echo "Resuming from snapshot"
  echo "Turn number: restored"
  RESUMED=1
` + resumeEcho + `fi
DC=0
STOPPED=0
while IFS= read -r line; do
  case "$line" in
    *">>>"*chose*)
      DC=$((DC+1))
      if [ "$DC" -gt "$CURSOR" ]; then
        printf '%s\n' "$line"
      fi
      if [ "$STOP" -gt 0 ] && [ $((DC-CURSOR)) -ge "$STOP" ] && [ "$DC" -gt "$CURSOR" ]; then
        echo "Stopping after $STOP choices"
        if [ -n "$SNAP" ] && [ "$OMIT" != "1" ]; then
          printf '{"cursor":%d,"game_state":{}}\n' "$DC" > "$SNAP"
        fi
        echo "Snapshot created"
        STOPPED=1
        break
      fi
      ;;
    *)
      if [ "$DC" -ge "$CURSOR" ]; then
        printf '%s\n' "$line"
      fi
      ;;
  esac
done <<'TRANSCRIPT'
` + opts.Transcript + `
TRANSCRIPT
if [ "$STOPPED" -eq 0 ] && [ -n "$SAVE" ]; then
  if [ "$RESUMED" = "1" ]; then
    printf '%s\n' '` + resumedState + `' > "$SAVE"
  else
    printf '%s\n' '` + opts.FinalState + `' > "$SAVE"
  fi
fi
exit 0
`
}

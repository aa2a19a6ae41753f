// Package driver invokes the external simulation binary, either
// continuously to completion or across a segment plan with snapshot
// handoff between segments.
//
// The binary is a black box with a flag contract: deck paths, per-player
// strategy selectors, a seed, a verbosity level, and the suspend/resume
// flags (--stop-every, --snapshot-output, --start-from,
// --save-final-state, --pN-fixed-inputs). Exit code 0 is success;
// anything else, a missing expected artifact, or a timeout is a driver
// failure - the harness or the binary is broken, which is distinct from
// a determinism mismatch and is never retried.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/stopgo/internal/capture"
	"github.com/roach88/stopgo/internal/plan"
	"github.com/roach88/stopgo/internal/trace"
)

// DefaultTimeout bounds a single binary invocation. A segment that runs
// longer is treated as hung.
const DefaultTimeout = 2 * time.Minute

// StrategyReplay is the deterministic replay strategy selector. In
// segmented mode, randomized strategies are substituted with this one,
// seeded with the decision trace from the continuous run.
const StrategyReplay = "replay"

// StrategyRandom is the randomized strategy selector.
const StrategyRandom = "random"

// Config describes one simulation configuration.
type Config struct {
	// Binary is the path to the simulation executable.
	Binary string

	// Deck1 and Deck2 are the input deck identifiers.
	Deck1, Deck2 string

	// P1 and P2 are the per-player strategy selectors for the
	// continuous run (e.g. "random", "heuristic").
	P1, P2 string

	// Seed drives the simulation's RNG.
	Seed int64

	// Verbosity is the transcript verbosity level. Extraction needs
	// the decision-announcement lines, which only appear at 3.
	Verbosity int

	// Timeout bounds each invocation. Zero means DefaultTimeout.
	Timeout time.Duration

	Logger *slog.Logger
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Output is the result of one driver run (continuous, or all segments
// of a segmented run concatenated in execution order).
type Output struct {
	// Transcript is the full line-oriented stdout.
	Transcript string

	// Capture is the parsed final-state document, nil when not
	// requested.
	Capture *capture.Document
}

// Error is a driver-level failure: the executable crashed, timed out,
// or omitted an expected artifact. Distinct from a determinism
// mismatch; the trial aborts immediately and no comparison is
// attempted.
type Error struct {
	// Stage identifies the failing invocation ("continuous",
	// "segment 2/4", ...).
	Stage string

	// ExitCode is the process exit code, or -1 when the process did
	// not exit normally.
	ExitCode int

	// Timeout is true when the invocation exceeded its deadline.
	Timeout bool

	// Stderr is a bounded excerpt of the process stderr.
	Stderr string

	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("driver failure at %s: timed out", e.Stage)
	case e.Err != nil:
		return fmt.Sprintf("driver failure at %s: %v", e.Stage, e.Err)
	default:
		return fmt.Sprintf("driver failure at %s: exit code %d", e.Stage, e.ExitCode)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Driver runs the simulation inside one trial's workdir.
type Driver struct {
	cfg  Config
	work *Workdir
}

// New creates a driver bound to a trial workdir.
func New(cfg Config, work *Workdir) *Driver {
	return &Driver{cfg: cfg, work: work}
}

// RunContinuous invokes the binary once and lets it run to completion
// with the configured strategies (mode A). When captureState is set,
// the final semantic state is requested and parsed.
func (d *Driver) RunContinuous(ctx context.Context, captureState bool) (*Output, error) {
	args := []string{
		d.cfg.Deck1, d.cfg.Deck2,
		"--p1=" + d.cfg.P1,
		"--p2=" + d.cfg.P2,
		fmt.Sprintf("--seed=%d", d.cfg.Seed),
		fmt.Sprintf("--verbosity=%d", d.cfg.Verbosity),
	}

	capturePath := ""
	if captureState {
		capturePath = d.work.Path("continuous_final_state.json")
		args = append(args, "--save-final-state="+capturePath)
	}

	stdout, err := d.invoke(ctx, "continuous", args)
	if err != nil {
		return nil, err
	}

	out := &Output{Transcript: stdout}
	if captureState {
		doc, err := d.loadCapture("continuous", capturePath)
		if err != nil {
			return nil, err
		}
		out.Capture = doc
	}
	return out, nil
}

// RunSegmented drives the binary across a segment plan (mode B),
// replaying the decision trace extracted from the continuous run.
//
// The first segment starts fresh with replay controllers seeded by the
// per-player fixed-input lists. Subsequent segments resume from the
// prior snapshot WITHOUT re-passing the inputs: the snapshot restores
// the replay cursor, and re-seeding would re-consume already-played
// decisions. Segment N+1 never starts before segment N has exited and
// its snapshot has been confirmed on disk.
func (d *Driver) RunSegmented(ctx context.Context, p *plan.Plan, ext *trace.Extract, captureState bool) (*Output, error) {
	p1 := segmentedStrategy(d.cfg.P1)
	p2 := segmentedStrategy(d.cfg.P2)

	capturePath := ""
	if captureState {
		capturePath = d.work.Path("segmented_final_state.json")
	}

	var transcript strings.Builder
	prevSnapshot := ""
	ended := false

	for i, seg := range p.Segments {
		stage := fmt.Sprintf("segment %d/%d", i+1, len(p.Segments))

		var args []string
		if i == 0 {
			args = []string{
				d.cfg.Deck1, d.cfg.Deck2,
				"--p1=" + p1,
				"--p2=" + p2,
				fmt.Sprintf("--seed=%d", d.cfg.Seed),
				fmt.Sprintf("--verbosity=%d", d.cfg.Verbosity),
			}
			// Fixed inputs are passed only on the fresh start and only
			// for players running the replay strategy.
			if p1 == StrategyReplay {
				args = append(args, "--p1-fixed-inputs="+joinChoices(ext.Choices(trace.P1)))
			}
			if p2 == StrategyReplay {
				args = append(args, "--p2-fixed-inputs="+joinChoices(ext.Choices(trace.P2)))
			}
		} else {
			args = []string{
				"--start-from=" + prevSnapshot,
				"--p1=" + p1,
				"--p2=" + p2,
				fmt.Sprintf("--verbosity=%d", d.cfg.Verbosity),
			}
		}

		snapshotPath := ""
		if !seg.Terminal() {
			snapshotPath = d.work.Path(fmt.Sprintf("snapshot_%d.json", i+1))
			args = append(args,
				fmt.Sprintf("--stop-every=both:choice:%d", seg.Length),
				"--snapshot-output="+snapshotPath,
			)
		}
		if captureState {
			// Requested on every segment: whichever segment ends the
			// game writes it, including an early end before the
			// terminal segment.
			args = append(args, "--save-final-state="+capturePath)
		}

		stdout, err := d.invoke(ctx, stage, args)

		// The consumed snapshot is dead weight once its segment exits.
		if prevSnapshot != "" {
			if rmErr := os.Remove(prevSnapshot); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				d.cfg.logger().Warn("could not remove consumed snapshot", "path", prevSnapshot, "error", rmErr)
			}
			prevSnapshot = ""
		}
		if err != nil {
			return nil, err
		}

		transcript.WriteString(stdout)
		d.cfg.logger().Debug("segment completed", "segment", i+1, "of", len(p.Segments), "advance", seg.Length)

		if segmentEnded(stdout) {
			ended = true
			if !seg.Terminal() {
				d.cfg.logger().Debug("game ended before terminal segment", "segment", i+1)
			}
			break
		}

		if !seg.Terminal() {
			if _, statErr := os.Stat(snapshotPath); statErr != nil {
				return nil, &Error{
					Stage:    stage,
					ExitCode: 0,
					Err:      fmt.Errorf("expected snapshot missing: %w", statErr),
				}
			}
			prevSnapshot = snapshotPath
		}
	}

	if !ended {
		d.cfg.logger().Warn("segmented run finished without observing game end")
	}

	out := &Output{Transcript: transcript.String()}
	if captureState {
		doc, err := d.loadCapture("segmented final state", capturePath)
		if err != nil {
			return nil, err
		}
		out.Capture = doc
	}
	return out, nil
}

// invoke runs one binary invocation with a bounded timeout, returning
// stdout. Non-zero exit and timeout are both *Error.
func (d *Driver) invoke(ctx context.Context, stage string, args []string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, d.cfg.timeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, d.cfg.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	d.cfg.logger().Debug("invoking simulator", "stage", stage, "args", strings.Join(args, " "))

	err := cmd.Run()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return "", &Error{Stage: stage, ExitCode: -1, Timeout: true, Stderr: excerpt(stderr.String()), Err: err}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &Error{Stage: stage, ExitCode: exitErr.ExitCode(), Stderr: excerpt(stderr.String()), Err: err}
		}
		return "", &Error{Stage: stage, ExitCode: -1, Stderr: excerpt(stderr.String()), Err: err}
	}

	return stdout.String(), nil
}

// loadCapture parses a final-state document, converting a missing or
// malformed file into a driver failure.
func (d *Driver) loadCapture(stage, path string) (*capture.Document, error) {
	doc, err := capture.LoadDocument(path)
	if err != nil {
		return nil, &Error{Stage: stage, ExitCode: 0, Err: err}
	}
	return doc, nil
}

// segmentedStrategy maps a continuous-run strategy to its segmented
// counterpart. Randomized strategies are replaced by deterministic
// replay of the extracted trace; already-deterministic strategies run
// unchanged.
func segmentedStrategy(s string) string {
	if s == StrategyRandom {
		return StrategyReplay
	}
	return s
}

// segmentEnded checks a single segment's transcript for a terminal
// marker. Once the game is over there is nothing left to resume.
func segmentEnded(transcript string) bool {
	return trace.ContainsTerminal(transcript)
}

func joinChoices(choices []int) string {
	parts := make([]string, len(choices))
	for i, c := range choices {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, " ")
}

// excerpt bounds stderr carried in driver errors.
func excerpt(s string) string {
	const limit = 2000
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

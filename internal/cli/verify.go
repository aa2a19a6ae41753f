package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/stopgo/internal/driver"
	"github.com/roach88/stopgo/internal/runner"
	"github.com/roach88/stopgo/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions

	Sim          string
	Scenario     string
	P1, P2       string
	Seed         int64
	Replays      int
	Stops        int
	Workers      int
	Timeout      time.Duration
	KeepArtifacts bool
	ArtifactDir  string
	Database     string
}

// VerifyResult is the JSON payload for a verify invocation.
type VerifyResult struct {
	Scenario       string        `json:"scenario"`
	Replays        int           `json:"replays"`
	Passed         int           `json:"passed"`
	Failed         int           `json:"failed"`
	DriverFailures int           `json:"driver_failures"`
	Trials         []TrialDetail `json:"trials"`
}

// TrialDetail is one trial's verdict in JSON output.
type TrialDetail struct {
	Index   int    `json:"index"`
	Verdict string `json:"verdict"`
	Plan    string `json:"plan,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify [deck1] [deck2]",
		Short: "Verify snapshot/resume determinism for one scenario",
		Long: `Run one simulation configuration continuously, then replay its exact
decision trace across randomized suspend/resume boundaries, and compare
the filtered action logs and canonical final states.

Deck2 defaults to deck1 (mirror match). A YAML scenario file can replace
the positional arguments and per-scenario flags.

Exit codes:
  0 - All replays matched
  1 - At least one mismatch or driver failure
  2 - Command error (missing binary, bad flags, etc.)

Examples:
  stopgo verify decks/royal_assassin.dck --sim ./sim --seed 42
  stopgo verify decks/a.dck decks/b.dck --sim ./sim --p1 random --p2 heuristic --replays 5
  stopgo verify --sim ./sim --scenario scenarios/royal_assassin.yaml
  stopgo verify decks/a.dck --sim ./sim --keep-artifacts --artifact-dir ./out`,
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sim, "sim", "", "path to the simulation binary (required)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "YAML scenario file (replaces positional decks and per-scenario flags)")
	cmd.Flags().StringVar(&opts.P1, "p1", "random", "player 1 strategy (random|heuristic|zero)")
	cmd.Flags().StringVar(&opts.P2, "p2", "heuristic", "player 2 strategy (random|heuristic|zero)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 42, "simulation seed")
	cmd.Flags().IntVar(&opts.Replays, "replays", 1, "number of randomized trials")
	cmd.Flags().IntVar(&opts.Stops, "stops", 5, "requested suspend points per trial")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "concurrent trials")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", driver.DefaultTimeout, "per-invocation timeout")
	cmd.Flags().BoolVar(&opts.KeepArtifacts, "keep-artifacts", false, "retain filtered logs and state captures")
	cmd.Flags().StringVar(&opts.ArtifactDir, "artifact-dir", "artifacts", "directory for retained artifacts")
	cmd.Flags().StringVar(&opts.Database, "db", "", "optional SQLite database to record results")
	_ = cmd.MarkFlagRequired("sim")

	return cmd
}

func runVerify(opts *VerifyOptions, args []string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	scenario, err := buildScenario(opts, args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid scenario", err)
	}

	if _, err := os.Stat(opts.Sim); err != nil {
		return WrapExitError(ExitCommandError, "simulation binary not found", err)
	}

	summary, err := runner.Run(cmd.Context(), scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "harness error", err)
	}

	if opts.Database != "" {
		if err := recordSummary(opts.Database, scenario.Driver, summary, cmd); err != nil {
			return err
		}
	}

	return outputVerify(opts, summary, cmd)
}

// buildScenario assembles the runner scenario from flags or a YAML
// scenario file.
func buildScenario(opts *VerifyOptions, args []string) (*runner.Scenario, error) {
	cfg := driver.Config{
		Binary:    opts.Sim,
		P1:        opts.P1,
		P2:        opts.P2,
		Seed:      opts.Seed,
		Verbosity: 3,
		Timeout:   opts.Timeout,
	}
	sc := &runner.Scenario{
		Driver:      cfg,
		Replays:     opts.Replays,
		TargetStops: opts.Stops,
		Workers:     opts.Workers,
		Retain:      opts.KeepArtifacts,
		ArtifactDir: opts.ArtifactDir,
	}

	if opts.Scenario != "" {
		file, err := LoadScenarioFile(opts.Scenario)
		if err != nil {
			return nil, err
		}
		sc.Name = file.Name
		sc.Driver.Deck1 = file.Deck1
		sc.Driver.Deck2 = file.Deck2
		sc.Driver.P1 = file.P1
		sc.Driver.P2 = file.P2
		sc.Driver.Seed = file.Seed
		if file.Replays > 0 {
			sc.Replays = file.Replays
		}
		if file.Stops > 0 {
			sc.TargetStops = file.Stops
		}
		return sc, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("deck1 is required (or use --scenario)")
	}
	sc.Driver.Deck1 = args[0]
	sc.Driver.Deck2 = args[0]
	if len(args) == 2 {
		sc.Driver.Deck2 = args[1]
	}
	sc.Name = fmt.Sprintf("%s_%sv%s_seed%d",
		strings.TrimSuffix(sc.Driver.Deck1, ".dck"), sc.Driver.P1, sc.Driver.P2, sc.Driver.Seed)
	return sc, nil
}

func recordSummary(dbPath string, cfg driver.Config, summary *runner.Summary, cmd *cobra.Command) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open results database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing results database", "error", closeErr)
		}
	}()

	runID, err := st.RecordRun(cmd.Context(), cfg, summary)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record results", err)
	}
	slog.Info("results recorded", "db", dbPath, "run_id", runID)
	return nil
}

func outputVerify(opts *VerifyOptions, summary *runner.Summary, cmd *cobra.Command) error {
	w := cmd.OutOrStdout()

	result := VerifyResult{
		Scenario:       summary.Scenario,
		Replays:        len(summary.Results),
		Passed:         summary.Passed,
		Failed:         summary.Failed,
		DriverFailures: summary.DriverFailures,
	}
	for _, trial := range summary.Results {
		detail := TrialDetail{Index: trial.TrialIndex, Verdict: trial.Verdict()}
		if trial.Plan != nil {
			detail.Plan = trial.Plan.String()
		}
		if !trial.Passed() {
			if trial.Driver != nil {
				detail.Detail = trial.Driver.Error()
			} else if trial.Report != nil {
				var b strings.Builder
				trial.Report.Render(&b)
				detail.Detail = b.String()
			}
		}
		result.Trials = append(result.Trials, detail)
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: "json", Writer: w}
		if summary.Pass() {
			if err := f.Success(result); err != nil {
				return err
			}
			return nil
		}
		if err := f.Error("E_MISMATCH", fmt.Sprintf("%d of %d trial(s) failed", summary.Failed, len(summary.Results)), result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d trial(s) failed", summary.Failed))
	}

	for _, trial := range summary.Results {
		if trial.Passed() {
			planStr := "no segmentation"
			if trial.Plan != nil {
				planStr = trial.Plan.String()
			}
			fmt.Fprintf(w, "✓ trial %d (plan %s)\n", trial.TrialIndex, planStr)
			continue
		}
		fmt.Fprintf(w, "✗ trial %d: %s\n", trial.TrialIndex, trial.Verdict())
		if trial.Driver != nil {
			fmt.Fprintf(w, "  %s\n", trial.Driver.Error())
		} else if trial.Report != nil {
			trial.Report.Render(w)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %d passed, %d failed (%d driver failure(s)), %d total\n",
		summary.Scenario, summary.Passed, summary.Failed, summary.DriverFailures, len(summary.Results))

	if !summary.Pass() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d trial(s) failed", summary.Failed))
	}
	fmt.Fprintln(w, "✓ All replays matched")
	return nil
}

// configureLogging sets the process-wide slog handler.
func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

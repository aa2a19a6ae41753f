package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/stopgo/internal/driver"
	"github.com/roach88/stopgo/internal/runner"
	"github.com/roach88/stopgo/internal/store"
)

// MatrixOptions holds flags for the matrix command.
type MatrixOptions struct {
	*RootOptions

	Sim      string
	Workers  int
	Timeout  time.Duration
	Database string
}

// MatrixCellResult is one deck × matchup × seed cell in JSON output.
type MatrixCellResult struct {
	Deck    string `json:"deck"`
	Matchup string `json:"matchup"`
	Seed    int64  `json:"seed"`
	Passed  int    `json:"passed"`
	Failed  int    `json:"failed"`
	Pass    bool   `json:"pass"`
}

// MatrixResult is the overall matrix outcome.
type MatrixResult struct {
	Cells  []MatrixCellResult `json:"cells"`
	Passed int                `json:"passed"`
	Failed int                `json:"failed"`
	Total  int                `json:"total"`
}

// NewMatrixCommand creates the matrix command.
func NewMatrixCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatrixOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "matrix <config.cue>",
		Short: "Run a deck × strategy verification matrix",
		Long: `Run the full verification matrix declared in a CUE config: every deck
paired with every strategy matchup under every seed, printing a
pass/fail summary table.

Exit codes:
  0 - Every cell passed
  1 - At least one cell failed
  2 - Command error (bad config, missing binary, etc.)

Examples:
  stopgo matrix ./matrix.cue --sim ./sim
  stopgo matrix ./matrix.cue --workers 4 --db results.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrix(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sim, "sim", "", "simulation binary (overrides config)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "concurrent trials per cell")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", driver.DefaultTimeout, "per-invocation timeout")
	cmd.Flags().StringVar(&opts.Database, "db", "", "optional SQLite database to record results")

	return cmd
}

func runMatrix(opts *MatrixOptions, configPath string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	cfg, err := LoadMatrixConfig(configPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load matrix config", err)
	}

	sim := cfg.Sim
	if opts.Sim != "" {
		sim = opts.Sim
	}
	if sim == "" {
		return NewExitError(ExitCommandError, "no simulation binary: set matrix.sim or pass --sim")
	}
	if _, err := os.Stat(sim); err != nil {
		return WrapExitError(ExitCommandError, "simulation binary not found", err)
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open results database", err)
		}
		defer st.Close()
	}

	result := MatrixResult{}
	for _, deck := range cfg.Decks {
		// Skip missing decks rather than failing the whole matrix; the
		// summary still shows every cell that ran.
		if _, err := os.Stat(deck.Path); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "skipping %s: deck not found at %s\n", deck.Name, deck.Path)
			continue
		}
		for _, matchup := range cfg.Matchups {
			for _, seed := range cfg.Seeds {
				scenario := &runner.Scenario{
					Name: fmt.Sprintf("%s_%sv%s_seed%d", deck.Name, matchup.P1, matchup.P2, seed),
					Driver: driver.Config{
						Binary:    sim,
						Deck1:     deck.Path,
						Deck2:     deck.Path,
						P1:        matchup.P1,
						P2:        matchup.P2,
						Seed:      seed,
						Verbosity: 3,
						Timeout:   opts.Timeout,
					},
					Replays:     cfg.Replays,
					TargetStops: cfg.Stops,
					Workers:     opts.Workers,
				}

				summary, err := runner.Run(cmd.Context(), scenario)
				if err != nil {
					return WrapExitError(ExitCommandError, "harness error", err)
				}
				if st != nil {
					if _, err := st.RecordRun(cmd.Context(), scenario.Driver, summary); err != nil {
						return WrapExitError(ExitCommandError, "failed to record results", err)
					}
				}

				cell := MatrixCellResult{
					Deck:    deck.Name,
					Matchup: fmt.Sprintf("%s vs %s", matchup.P1, matchup.P2),
					Seed:    seed,
					Passed:  summary.Passed,
					Failed:  summary.Failed,
					Pass:    summary.Pass(),
				}
				result.Cells = append(result.Cells, cell)
				result.Total++
				if cell.Pass {
					result.Passed++
				} else {
					result.Failed++
				}
			}
		}
	}

	return outputMatrix(opts, result, cmd)
}

func outputMatrix(opts *MatrixOptions, result MatrixResult, cmd *cobra.Command) error {
	w := cmd.OutOrStdout()

	if opts.Format == "json" {
		f := &OutputFormatter{Format: "json", Writer: w}
		if result.Failed == 0 {
			if err := f.Success(result); err != nil {
				return err
			}
			return nil
		}
		if err := f.Error("E_MATRIX_FAILED", fmt.Sprintf("%d cell(s) failed", result.Failed), result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d cell(s) failed", result.Failed))
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DECK\tMATCHUP\tSEED\tTRIALS\tSTATUS")
	for _, cell := range result.Cells {
		status := "PASS"
		if !cell.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d/%d\t%s\n",
			cell.Deck, cell.Matchup, cell.Seed, cell.Passed, cell.Passed+cell.Failed, status)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Matrix: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d cell(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All cells passed")
	return nil
}

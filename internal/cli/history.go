package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/stopgo/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	RunID    int64
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded verification runs",
		Long: `List verification runs recorded in a results database, newest first.
With --run, show the per-trial verdicts of one run instead.

Examples:
  stopgo history --db results.db
  stopgo history --db results.db --limit 50
  stopgo history --db results.db --run 12`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to results database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list")
	cmd.Flags().Int64Var(&opts.RunID, "run", 0, "show trials of one run")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open results database", err)
	}
	defer st.Close()

	w := cmd.OutOrStdout()

	if opts.RunID > 0 {
		trials, err := st.ReadTrials(cmd.Context(), opts.RunID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read trials", err)
		}
		if opts.Format == "json" {
			f := &OutputFormatter{Format: "json", Writer: w}
			return f.Success(trials)
		}
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TRIAL\tVERDICT\tDECISIONS\tPLAN")
		for _, t := range trials {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", t.TrialIndex, t.Verdict, t.Decisions, t.Plan)
		}
		tw.Flush()
		for _, t := range trials {
			if t.Detail != "" {
				fmt.Fprintf(w, "\ntrial %d detail:\n%s\n", t.TrialIndex, t.Detail)
			}
		}
		return nil
	}

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: "json", Writer: w}
		return f.Success(runs)
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tSCENARIO\tMATCHUP\tSEED\tPASSED\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s vs %s\t%d\t%d\t%d\n",
			r.ID, r.CreatedAt, r.Scenario, r.P1, r.P2, r.Seed, r.Passed, r.Failed)
	}
	tw.Flush()
	return nil
}

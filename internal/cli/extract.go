package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stopgo/internal/runner"
	"github.com/roach88/stopgo/internal/trace"
)

// ExtractOptions holds flags for the extract command.
type ExtractOptions struct {
	*RootOptions
	P1Name string
	P2Name string
}

// ExtractResult is the JSON payload for an extract invocation.
type ExtractResult struct {
	Decisions []DecisionDetail `json:"decisions"`
	Actions   []string         `json:"actions"`
	GameOver  bool             `json:"game_over"`
	Unparsed  int              `json:"unparsed"`
}

// DecisionDetail is one recovered decision in JSON output.
type DecisionDetail struct {
	Index  int    `json:"index"`
	Owner  string `json:"owner"`
	Option int    `json:"option"`
}

// NewExtractCommand creates the extract command, a debugging aid that
// shows exactly what the harness recovers from a saved transcript.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExtractOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "extract <transcript>",
		Short: "Extract the decision trace and filtered actions from a transcript",
		Long: `Parse a saved simulation transcript and print the recovered decision
trace and filtered action sequence - the exact inputs determinism
comparison would see.

Examples:
  stopgo extract game.log
  stopgo extract game.log --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.P1Name, "p1-name", runner.DefaultP1Name, "player 1 transcript name")
	cmd.Flags().StringVar(&opts.P2Name, "p2-name", runner.DefaultP2Name, "player 2 transcript name")

	return cmd
}

func runExtract(opts *ExtractOptions, path string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read transcript", err)
	}

	extract := trace.NewExtractor(opts.P1Name, opts.P2Name).Parse(string(data))

	result := ExtractResult{
		Actions:  extract.Actions,
		GameOver: extract.GameOver,
		Unparsed: extract.Unparsed,
	}
	for _, d := range extract.Decisions {
		result.Decisions = append(result.Decisions, DecisionDetail{
			Index:  d.SequenceIndex,
			Owner:  d.Owner.String(),
			Option: d.SelectedOption,
		})
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		f := &OutputFormatter{Format: "json", Writer: w}
		return f.Success(result)
	}

	fmt.Fprintf(w, "Decisions: %d (unparsed: %d)\n", len(result.Decisions), result.Unparsed)
	for _, d := range result.Decisions {
		fmt.Fprintf(w, "  %3d %s chose %d\n", d.Index, d.Owner, d.Option)
	}
	fmt.Fprintf(w, "Actions: %d\n", len(result.Actions))
	for _, a := range result.Actions {
		fmt.Fprintf(w, "  %s\n", a)
	}
	fmt.Fprintf(w, "Game over: %v\n", result.GameOver)
	return nil
}

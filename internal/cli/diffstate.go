package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stopgo/internal/capture"
	"github.com/roach88/stopgo/internal/compare"
)

// DiffStateOptions holds flags for the diffstate command.
type DiffStateOptions struct {
	*RootOptions
}

// DiffStateResult is the JSON payload for a diffstate invocation.
type DiffStateResult struct {
	Match     bool     `json:"match"`
	Entries   []string `json:"entries,omitempty"`
	Truncated bool     `json:"truncated,omitempty"`
}

// NewDiffStateCommand creates the diffstate command, a standalone
// comparison of two saved state captures.
func NewDiffStateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffStateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diffstate <continuous.json> <segmented.json>",
		Short: "Compare two final-state captures",
		Long: `Canonicalize two --save-final-state documents (strip incidental
fields, sort keys) and report their structural differences.

Exit codes:
  0 - States match
  1 - States differ
  2 - Command error (unreadable or malformed captures)

Example:
  stopgo diffstate normal.gamestate stopgo.gamestate`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiffState(opts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runDiffState(opts *DiffStateOptions, pathA, pathB string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	docA, err := capture.LoadDocument(pathA)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load capture", err)
	}
	docB, err := capture.LoadDocument(pathB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load capture", err)
	}

	diff := compare.States(docA.CanonicalState(), docB.CanonicalState())

	w := cmd.OutOrStdout()
	result := DiffStateResult{Match: diff.Matches, Entries: diff.Entries, Truncated: diff.Truncated}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: "json", Writer: w}
		if diff.Matches {
			if err := f.Success(result); err != nil {
				return err
			}
			return nil
		}
		if err := f.Error("E_STATE_DIFF", "states differ", result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "states differ")
	}

	if diff.Matches {
		fmt.Fprintln(w, "✓ States match")
		return nil
	}
	fmt.Fprintf(w, "✗ States differ (%d difference(s)):\n", len(diff.Entries))
	for _, e := range diff.Entries {
		fmt.Fprintf(w, "  %s\n", e)
	}
	if diff.Truncated {
		fmt.Fprintln(w, "  ... (diff truncated)")
	}
	return NewExitError(ExitFailure, "states differ")
}

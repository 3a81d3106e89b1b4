package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimcheck/internal/pipeline"
)

var (
	timeout    time.Duration
	claimIndex int
	claimText  string
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Extract claims from a research document",
	Long: `Process reads a markdown document from the research directory, extracts its
declarative claims and records them in the claim ledger.

The first run fixes the document's claim count; later runs only refresh the
timestamp.

Example:
  claimcheck process notes.md
  claimcheck process notes.md --pretty`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(map[string]any{"action": pipeline.ActionProcess, "filePath": args[0]})
	},
}

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate one claim against web evidence",
	Long: `Validate searches the web for a claim, keeps credible sources, scores the
evidence and stores the verdict at the given claim index.

Example:
  claimcheck validate notes.md --index 0 --claim "Water boils at 100 degrees Celsius at sea level"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(map[string]any{
			"action":     pipeline.ActionValidate,
			"filePath":   args[0],
			"claimIndex": claimIndex,
			"claim":      claimText,
		})
	},
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update <file>",
	Short: "Rewrite a document with citations and corrections",
	Long: `Update rewrites the document in place: supported claims get a citation of
their first source, contradicted claims are replaced by the suggested correction.
Running update twice does not stack citations.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(map[string]any{"action": pipeline.ActionUpdate, "filePath": args[0]})
	},
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <file>",
	Short: "Show validation progress for a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(map[string]any{"action": pipeline.ActionStatus, "filePath": args[0]})
	},
}

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset <file>",
	Short: "Forget the stored progress of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runReset,
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents with stored progress",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(processCmd, validateCmd, updateCmd, statusCmd, resetCmd, listCmd)

	for _, cmd := range []*cobra.Command{processCmd, validateCmd, updateCmd, statusCmd, resetCmd, listCmd} {
		cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall command timeout")
	}

	validateCmd.Flags().IntVar(&claimIndex, "index", 0, "claim index returned by process")
	validateCmd.Flags().StringVar(&claimText, "claim", "", "claim text to validate")
	_ = validateCmd.MarkFlagRequired("index")
	_ = validateCmd.MarkFlagRequired("claim")
}

// dispatch sends one request through the processor and prints the response
func dispatch(req map[string]any) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	proc, _, err := openProcessor()
	if err != nil {
		return err
	}
	defer func() { _ = proc.Close() }()

	input, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	out := proc.Handle(ctx, string(input))
	if req["action"] == pipeline.ActionValidate {
		printVerdict(os.Stderr, out)
	}
	return emit(os.Stdout, out, pretty)
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	proc, _, err := openProcessor()
	if err != nil {
		return err
	}
	defer func() { _ = proc.Close() }()

	removed, err := proc.Reset(ctx, args[0])
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(os.Stderr, "No stored progress for %s\n", args[0])
		return nil
	}
	fmt.Fprintf(os.Stderr, "✓ Reset %s\n", args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	proc, _, err := openProcessor()
	if err != nil {
		return err
	}
	defer func() { _ = proc.Close() }()

	paths, err := proc.Documents(ctx)
	if err != nil {
		return err
	}
	for _, path := range paths {
		state, err := proc.State(ctx, path)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", path, progressLine(state))
	}
	return nil
}

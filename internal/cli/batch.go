package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimcheck/internal/pipeline"
	"github.com/ppiankov/claimcheck/internal/worker"
)

var (
	concurrency  int
	batchUpdate  bool
	inputList    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [file...]",
	Short: "Process and validate every claim of one or more documents",
	Long: `Batch runs the whole workflow for each document:
- Extract claims (process)
- Validate every claim in parallel with a bounded worker count
- Optionally rewrite the document with citations and corrections (--update)

Documents can be given as arguments or listed in a file (one per line,
# comments allowed).

The claim count of a document is fixed when it is first processed. If claims
were added since, only the recorded count is validated; run 'claimcheck reset'
first to recount.

Example:
  claimcheck batch notes.md
  claimcheck batch notes.md review.md --concurrency 4 --update
  claimcheck batch --input documents.txt --timeout 30m`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent validations")
	batchCmd.Flags().BoolVar(&batchUpdate, "update", false, "rewrite documents after validation")
	batchCmd.Flags().StringVar(&inputList, "input", "", "file listing document paths (one per line)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	paths := append([]string(nil), args...)
	if inputList != "" {
		listed, err := worker.ReadPathsFromFile(inputList)
		if err != nil {
			return fmt.Errorf("read input list: %w", err)
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no documents given (pass paths or --input)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	proc, cfg, err := openProcessor()
	if err != nil {
		return err
	}
	defer func() { _ = proc.Close() }()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Claimcheck Batch Validation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Documents:    %d (%s)\n", len(paths), cfg.DocumentsPath())
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Update:       %v\n", batchUpdate)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	validator := worker.NewBatchValidator(proc, concurrency)

	var supported, unsupported, failures int
	for _, path := range paths {
		s, u, f, err := batchDocument(ctx, proc, validator, path)
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", path, err)
			continue
		}
		supported += s
		unsupported += u
		failures += f
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Documents:    %d\n", len(paths))
	fmt.Fprintf(os.Stderr, "  Supported:    %d\n", supported)
	fmt.Fprintf(os.Stderr, "  Unsupported:  %d\n", unsupported)
	fmt.Fprintf(os.Stderr, "  Failures:     %d\n", failures)
	fmt.Fprintf(os.Stderr, "\n")

	if failures > 0 {
		return fmt.Errorf("%d failures during batch", failures)
	}
	return nil
}

// batchDocument processes, validates and optionally updates one document
func batchDocument(ctx context.Context, proc *pipeline.Processor, validator *worker.BatchValidator, path string) (supported, unsupported, failures int, err error) {
	fmt.Fprintf(os.Stderr, "⚙️  %s\n", path)

	processed, err := proc.Process(ctx, path)
	if err != nil {
		return 0, 0, 0, err
	}
	fmt.Fprintf(os.Stderr, "✓ Extracted %d claims\n", processed.ClaimsFound)

	state, err := proc.State(ctx, path)
	if err != nil {
		return 0, 0, 0, err
	}
	claims := claimsWithinTotal(processed.Claims, state.Progress.TotalClaims)
	if len(claims) < len(processed.Claims) {
		fmt.Fprintf(os.Stderr, "⚠️  %s has %d claims but %d were recorded on first processing; validating the first %d (run 'claimcheck reset %s' to recount)\n",
			path, len(processed.Claims), state.Progress.TotalClaims, len(claims), path)
	}

	for _, result := range validator.ValidateAll(ctx, path, claims) {
		if result.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "  [%d] ✗ %v\n", result.Index, result.Error)
			continue
		}
		if result.Outcome.IsValid {
			supported++
		} else {
			unsupported++
		}
		fmt.Fprintf(os.Stderr, "  [%d] %s\n      %s\n", result.Index, result.Claim, verdictLine(*result.Outcome))
	}

	if batchUpdate {
		if _, err := proc.Update(ctx, path); err != nil {
			return supported, unsupported, failures, err
		}
		fmt.Fprintf(os.Stderr, "✓ Updated %s\n", path)
	}

	status, err := proc.Status(ctx, path)
	if err != nil {
		return supported, unsupported, failures, err
	}
	fmt.Fprintf(os.Stderr, "%s\n\n", status)
	return supported, unsupported, failures, nil
}

// claimsWithinTotal drops claims whose index is beyond the recorded claim count
func claimsWithinTotal(claims []string, total int) []string {
	if total < 0 {
		total = 0
	}
	if len(claims) > total {
		return claims[:total]
	}
	return claims
}

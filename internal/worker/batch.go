package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// ClaimValidator validates one claim of a processed document
type ClaimValidator interface {
	ValidateClaim(ctx context.Context, filePath string, index int, claim string) (*model.ValidationOutcome, error)
}

// ValidateJob validates a single claim
type ValidateJob struct {
	FilePath  string
	Index     int
	Claim     string
	Validator ClaimValidator
}

// Execute executes the validation job
func (j *ValidateJob) Execute(ctx context.Context) Result {
	outcome, err := j.Validator.ValidateClaim(ctx, j.FilePath, j.Index, j.Claim)
	return &ValidateResult{
		Index:   j.Index,
		Claim:   j.Claim,
		Outcome: outcome,
		Error:   err,
	}
}

// ValidateResult is the result of a validation job
type ValidateResult struct {
	Index   int
	Claim   string
	Outcome *model.ValidationOutcome
	Error   error
}

// GetError returns the error from the validation result
func (r *ValidateResult) GetError() error {
	return r.Error
}

// BatchValidator validates every claim of a document with bounded concurrency
type BatchValidator struct {
	validator   ClaimValidator
	concurrency int
}

// NewBatchValidator creates a new batch validator
func NewBatchValidator(validator ClaimValidator, concurrency int) *BatchValidator {
	return &BatchValidator{
		validator:   validator,
		concurrency: concurrency,
	}
}

// ValidateAll validates claims[i] at index i and returns results ordered by index
func (b *BatchValidator) ValidateAll(ctx context.Context, filePath string, claims []string) []*ValidateResult {
	if len(claims) == 0 {
		return []*ValidateResult{}
	}

	jobs := make([]Job, len(claims))
	for i, claim := range claims {
		jobs[i] = &ValidateJob{
			FilePath:  filePath,
			Index:     i,
			Claim:     claim,
			Validator: b.validator,
		}
	}

	pool := NewPool(ctx, b.concurrency)
	results := pool.Run(jobs)

	validated := make([]*ValidateResult, 0, len(results))
	for _, result := range results {
		validated = append(validated, result.(*ValidateResult))
	}
	sort.Slice(validated, func(i, j int) bool {
		return validated[i].Index < validated[j].Index
	})

	return validated
}

// ReadPathsFromFile reads document paths from a file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}

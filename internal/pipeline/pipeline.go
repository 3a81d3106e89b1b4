// Package pipeline dispatches document requests through extraction, validation and rewriting.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ppiankov/claimcheck/internal/extract"
	"github.com/ppiankov/claimcheck/internal/ledger"
	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/rewrite"
	"github.com/ppiankov/claimcheck/internal/score"
	"github.com/ppiankov/claimcheck/internal/search"
	"github.com/ppiankov/claimcheck/internal/session"
	"github.com/ppiankov/claimcheck/internal/validate"
)

// Actions understood by Handle
const (
	ActionProcess  = "process"
	ActionValidate = "validate"
	ActionUpdate   = "update"
	ActionStatus   = "status"
)

// NotProcessed is the status text for a document without state
const NotProcessed = "Document not processed"

// Request is the JSON request accepted by Handle.
// Claim and ClaimIndex stay raw so their JSON types can be checked.
type Request struct {
	Action     string          `json:"action"`
	FilePath   string          `json:"filePath"`
	ClaimIndex json.RawMessage `json:"claimIndex,omitempty"`
	Claim      json.RawMessage `json:"claim,omitempty"`
}

// ProcessResponse is returned by a successful process action
type ProcessResponse struct {
	Status      string   `json:"status"`
	ClaimsFound int      `json:"claimsFound"`
	Claims      []string `json:"claims"`
}

// ValidateResponse is returned by a successful validate action
type ValidateResponse struct {
	Status          string                  `json:"status"`
	Message         string                  `json:"message"`
	ValidatedClaims int                     `json:"validatedClaims"`
	Result          model.ValidationOutcome `json:"result"`
}

// UpdateResponse is returned by a successful update action
type UpdateResponse struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	ValidatedClaims int    `json:"validatedClaims"`
}

// Options holds the collaborators of a Processor
type Options struct {
	Documents DocumentStore
	Searcher  search.Searcher
	Ledger    ledger.Ledger
	Embedder  llm.Embedder
	Backend   session.Backend
	Enricher  *validate.Enricher // nil disables page fetching
	Policy    model.PolicyConfig
	Scoring   model.ScoringConfig
	Logger    *slog.Logger
}

// Processor owns one document session and serves process/validate/update/status
type Processor struct {
	docs      DocumentStore
	extractor *extract.ClaimExtractor
	searcher  search.Searcher
	filter    *validate.CredibilityFilter
	enricher  *validate.Enricher
	scorer    *score.Scorer
	store     *session.Store
	ledger    ledger.Ledger
	embedder  llm.Embedder
	gate      *Gate
	logger    *slog.Logger
}

// New creates a processor and starts its initialization (ledger setup, session load)
// in the background. Every operation waits for it to finish.
func New(opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Scoring == (model.ScoringConfig{}) {
		opts.Scoring = model.DefaultScoring()
	}

	p := &Processor{
		docs:      opts.Documents,
		extractor: extract.NewClaimExtractor(opts.Policy),
		searcher:  opts.Searcher,
		filter:    validate.NewCredibilityFilter(opts.Policy),
		enricher:  opts.Enricher,
		scorer:    score.NewScorer(opts.Scoring, opts.Policy),
		store:     session.NewStore(opts.Backend, logger),
		ledger:    opts.Ledger,
		embedder:  opts.Embedder,
		logger:    logger.With("component", "processor"),
	}
	if p.ledger == nil {
		p.ledger = ledger.NewMemoryLedger()
	}
	if p.embedder == nil {
		p.embedder = llm.NewPlaceholderEmbedder(0)
	}
	if p.searcher == nil {
		p.searcher = search.SearcherFunc(func(context.Context, string) ([]model.SearchResult, error) {
			return nil, errors.New("no search provider configured")
		})
	}

	p.gate = StartGate(context.Background(), p.initialize)
	return p
}

func (p *Processor) initialize(ctx context.Context) error {
	if err := p.ledger.Initialize(ctx); err != nil {
		p.logger.Error("claim ledger initialization failed", "error", err)
		return fmt.Errorf("initialize claim ledger: %w", err)
	}
	p.store.Load(ctx)
	return nil
}

// WaitReady blocks until initialization has finished
func (p *Processor) WaitReady(ctx context.Context) error {
	if err := p.gate.Wait(ctx); err != nil {
		return &ProcessError{Code: CodeGeneral, Message: err.Error(), Err: err}
	}
	return nil
}

// Handle decodes a JSON request, runs it and returns the response text.
// Failures are rendered as {"error","code"}; status answers in plain text.
func (p *Processor) Handle(ctx context.Context, input string) (out string) {
	start := time.Now()
	action := "unknown"
	code := "OK"

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("request panicked", "action", action, "panic", r)
			out = encodeError(newError(CodeGeneral, nil, "internal error: %v", r))
			code = string(CodeGeneral)
		}
		requestsTotal.WithLabelValues(action, code).Inc()
		requestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	}()

	fail := func(err error) string {
		code = string(CodeOf(err))
		p.logger.Debug("request failed", "action", action, "code", code, "error", err)
		return encodeError(err)
	}

	// 1. Readiness gate
	if err := p.WaitReady(ctx); err != nil {
		return fail(err)
	}

	// 2. Decode; null, arrays and scalars are malformed, not merely incomplete
	if !isJSONObject(input) {
		return fail(newError(CodeGeneral, nil, "invalid request: expected a JSON object"))
	}
	var req Request
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		return fail(newError(CodeGeneral, err, "invalid request"))
	}
	if req.FilePath == "" {
		return fail(newError(CodeInvalidRequest, nil, "filePath is required"))
	}

	// 3. Dispatch
	switch req.Action {
	case ActionProcess:
		action = ActionProcess
		resp, err := p.Process(ctx, req.FilePath)
		if err != nil {
			return fail(err)
		}
		return encode(resp)

	case ActionValidate:
		action = ActionValidate
		claim, index, err := validateArgs(req)
		if err != nil {
			return fail(err)
		}
		resp, err := p.Validate(ctx, req.FilePath, index, claim)
		if err != nil {
			return fail(err)
		}
		return encode(resp)

	case ActionUpdate:
		action = ActionUpdate
		resp, err := p.Update(ctx, req.FilePath)
		if err != nil {
			return fail(err)
		}
		return encode(resp)

	case ActionStatus:
		action = ActionStatus
		text, err := p.Status(ctx, req.FilePath)
		if err != nil {
			return fail(err)
		}
		return text

	default:
		return fail(newError(CodeInvalidAction, nil, "Unknown action: %s", req.Action))
	}
}

// Process extracts the claims of a document, creating its state on first use,
// and logs them to the claim ledger.
func (p *Processor) Process(ctx context.Context, filePath string) (*ProcessResponse, error) {
	if err := p.WaitReady(ctx); err != nil {
		return nil, err
	}

	// 1. Read and extract
	content, err := p.docs.Read(ctx, filePath)
	if err != nil {
		return nil, newError(CodeFileRead, err, "Failed to read file")
	}
	claims := p.extractor.Extract(content)
	claimsExtracted.Observe(float64(len(claims)))

	// 2. State is created once; TotalClaims stays frozen afterwards
	state, created := p.store.GetOrCreate(filePath, claims)
	if !created && state.Progress.TotalClaims != len(claims) {
		p.logger.Warn("document changed since first processing",
			"filePath", filePath,
			"totalClaims", state.Progress.TotalClaims,
			"claimsFound", len(claims))
	}

	// 3. Claim ledger
	records, err := ledger.ClaimRecords(ctx, p.embedder, filePath, claims)
	if err != nil {
		return nil, newError(CodeStorage, err, "Failed to store claims")
	}
	if err := p.ledger.Upsert(ctx, records); err != nil {
		return nil, newError(CodeStorage, err, "Failed to store claims")
	}

	// 4. Progress and persistence
	if err := p.store.Touch(filePath); err != nil {
		return nil, newError(CodeGeneral, err, "Failed to update progress")
	}
	p.save(ctx)

	p.logger.Info("document processed", "filePath", filePath, "claims", len(claims), "created", created)

	return &ProcessResponse{
		Status:      "success",
		ClaimsFound: len(claims),
		Claims:      claims,
	}, nil
}

// Validate checks one claim against search evidence and stores the verdict at index
func (p *Processor) Validate(ctx context.Context, filePath string, index int, claim string) (*ValidateResponse, error) {
	state, outcome, err := p.validate(ctx, filePath, index, claim)
	if err != nil {
		return nil, err
	}
	return &ValidateResponse{
		Status:          "success",
		Message:         "Claim validation updated",
		ValidatedClaims: state.Progress.ValidatedClaims,
		Result:          outcome,
	}, nil
}

// ValidateClaim validates one claim for batch runs
func (p *Processor) ValidateClaim(ctx context.Context, filePath string, index int, claim string) (*model.ValidationOutcome, error) {
	_, outcome, err := p.validate(ctx, filePath, index, claim)
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (p *Processor) validate(ctx context.Context, filePath string, index int, claim string) (*model.DocumentState, model.ValidationOutcome, error) {
	if err := p.WaitReady(ctx); err != nil {
		return nil, model.ValidationOutcome{}, err
	}
	if claim == "" {
		return nil, model.ValidationOutcome{}, newError(CodeInvalidRequest, nil, "claim and claimIndex are required for validation")
	}

	// 1. State must exist and the index must address one of its claims
	state, ok := p.store.Get(filePath)
	if !ok {
		return nil, model.ValidationOutcome{}, newError(CodeNoState, nil, "No state found for file: %s", filePath)
	}
	if index < 0 || index >= state.Progress.TotalClaims {
		return nil, model.ValidationOutcome{}, newError(CodeInvalidRequest, nil,
			"claimIndex %d out of range [0, %d)", index, state.Progress.TotalClaims)
	}

	// 2. Search, filter, score
	outcome := p.assess(ctx, claim)
	verdictsTotal.WithLabelValues(verdictLabel(outcome.IsValid, len(outcome.Sources))).Inc()

	// 3. Store and persist
	state, err := p.store.SetValidation(filePath, index, claim, outcome)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, model.ValidationOutcome{}, newError(CodeNoState, nil, "No state found for file: %s", filePath)
		}
		return nil, model.ValidationOutcome{}, newError(CodeGeneral, err, "Failed to store validation")
	}
	p.save(ctx)

	p.logger.Info("claim validated",
		"filePath", filePath,
		"index", index,
		"valid", outcome.IsValid,
		"confidence", outcome.Confidence,
		"sources", len(outcome.Sources))

	return state, outcome, nil
}

// assess runs search, credibility filtering, optional enrichment and scoring.
// Search failures become an error outcome rather than an error.
func (p *Processor) assess(ctx context.Context, claim string) model.ValidationOutcome {
	results, err := p.searcher.Search(ctx, claim)
	if err != nil {
		p.logger.Warn("search failed", "claim", claim, "error", err)
		return score.ErrorOutcome(err)
	}

	credible := p.filter.Filter(results)
	p.logger.Debug("search results filtered", "claim", claim, "results", len(results), "credible", len(credible))

	if p.enricher != nil && len(credible) > 0 {
		credible = p.enricher.Enrich(ctx, credible)
	}

	return p.scorer.Score(claim, credible).Normalize()
}

// Update rewrites the document with the stored verdicts
func (p *Processor) Update(ctx context.Context, filePath string) (*UpdateResponse, error) {
	if err := p.WaitReady(ctx); err != nil {
		return nil, err
	}

	state, ok := p.store.Get(filePath)
	if !ok {
		return nil, newError(CodeNoState, nil, "No state found for file: %s", filePath)
	}

	content, err := p.docs.Read(ctx, filePath)
	if err != nil {
		return nil, newError(CodeFileRead, err, "Failed to read file")
	}

	updated := rewrite.Apply(content, state.ValidatedClaims)

	if err := p.docs.Write(ctx, filePath, updated); err != nil {
		return nil, newError(CodeFileWrite, err, "Failed to write file")
	}
	p.save(ctx)

	p.logger.Info("document updated",
		"filePath", filePath,
		"rewritable", rewrite.Count(state.ValidatedClaims),
		"changed", updated != content)

	return &UpdateResponse{
		Status:          "success",
		Message:         "Document updated",
		ValidatedClaims: state.Progress.ValidatedClaims,
	}, nil
}

// Status returns the progress text for a document
func (p *Processor) Status(ctx context.Context, filePath string) (string, error) {
	if err := p.WaitReady(ctx); err != nil {
		return "", err
	}

	state, ok := p.store.Get(filePath)
	if !ok {
		return NotProcessed, nil
	}
	return FormatStatus(state), nil
}

// State returns a copy of the stored state for a document
func (p *Processor) State(ctx context.Context, filePath string) (*model.DocumentState, error) {
	if err := p.WaitReady(ctx); err != nil {
		return nil, err
	}
	state, ok := p.store.Get(filePath)
	if !ok {
		return nil, newError(CodeNoState, nil, "No state found for file: %s", filePath)
	}
	return state, nil
}

// Documents lists the tracked document paths
func (p *Processor) Documents(ctx context.Context) ([]string, error) {
	if err := p.WaitReady(ctx); err != nil {
		return nil, err
	}
	return p.store.Paths(), nil
}

// Reset forgets a document so the next process recounts its claims
func (p *Processor) Reset(ctx context.Context, filePath string) (bool, error) {
	if err := p.WaitReady(ctx); err != nil {
		return false, err
	}
	removed := p.store.Delete(filePath)
	if removed {
		p.save(ctx)
		p.logger.Info("document state reset", "filePath", filePath)
	}
	return removed, nil
}

// Close releases the ledger and the session backend
func (p *Processor) Close() error {
	var errs []error
	if err := p.ledger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close ledger: %w", err))
	}
	if err := p.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close session: %w", err))
	}
	return errors.Join(errs...)
}

// save flushes the session; failures are logged by the store and swallowed here
func (p *Processor) save(ctx context.Context) {
	if err := p.store.Save(ctx); err != nil {
		sessionSaveFailures.Inc()
	}
}

// FormatStatus renders the progress text of a document state
func FormatStatus(state *model.DocumentState) string {
	validated := state.Progress.ValidatedClaims
	total := state.Progress.TotalClaims

	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(validated) / float64(total) * 100))
	}

	return fmt.Sprintf("Progress: %d%% (%d/%d claims validated)\nLast updated: %s",
		percent, validated, total, state.Progress.LastUpdated.UTC().Format(time.RFC3339))
}

// validateArgs checks that claim is a non-empty string and claimIndex an integral number
func validateArgs(req Request) (string, int, error) {
	invalid := newError(CodeInvalidRequest, nil, "claim and claimIndex are required for validation")

	var claim string
	if len(req.Claim) == 0 || json.Unmarshal(req.Claim, &claim) != nil || claim == "" {
		return "", 0, invalid
	}

	var raw any
	if len(req.ClaimIndex) == 0 || json.Unmarshal(req.ClaimIndex, &raw) != nil {
		return "", 0, invalid
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) {
		return "", 0, invalid
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return "", 0, newError(CodeInvalidRequest, nil, "claimIndex %v out of range", f)
	}

	return claim, int(f), nil
}

func isJSONObject(input string) bool {
	trimmed := strings.TrimSpace(input)
	return strings.HasPrefix(trimmed, "{")
}

func encode(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return encodeError(newError(CodeGeneral, err, "encode response"))
	}
	return string(data)
}

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/pipeline"
)

var (
	validColor   = color.New(color.FgGreen, color.Bold).SprintFunc()
	invalidColor = color.New(color.FgRed, color.Bold).SprintFunc()
	faintColor   = color.New(color.Faint).SprintFunc()
)

// ResponseError is returned when the dispatcher answered with an error body
type ResponseError struct {
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// responseError extracts the {"error","code"} body, if out is one
func responseError(out string) *ResponseError {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal([]byte(out), &body) != nil || body.Code == "" {
		return nil
	}
	return &ResponseError{Code: body.Code, Message: body.Error}
}

// emit prints a dispatcher response, indenting JSON when asked,
// and turns error bodies into a non-zero exit
func emit(w io.Writer, out string, indent bool) error {
	text := out
	if indent && json.Valid([]byte(out)) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(out), "", "  "); err == nil {
			text = buf.String()
		}
	}
	if _, err := fmt.Fprintln(w, text); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	if respErr := responseError(out); respErr != nil {
		return respErr
	}
	return nil
}

// printVerdict writes a colored one-line summary of a validate response
func printVerdict(w io.Writer, out string) {
	var resp pipeline.ValidateResponse
	if json.Unmarshal([]byte(out), &resp) != nil || resp.Status == "" {
		return
	}
	fmt.Fprintln(w, verdictLine(resp.Result))
}

func verdictLine(outcome model.ValidationOutcome) string {
	verdict := invalidColor("✗ unsupported")
	if outcome.IsValid {
		verdict = validColor("✓ supported")
	}

	line := fmt.Sprintf("%s (confidence %.2f)", verdict, outcome.Confidence)
	if src := outcome.FirstSource(); src != "" {
		line += " " + faintColor(src)
	}
	if outcome.SuggestedCorrection != "" {
		line += "\n  → " + outcome.SuggestedCorrection
	}
	return line
}

// progressLine renders "validated/total (P%)" for list output
func progressLine(state *model.DocumentState) string {
	total := state.Progress.TotalClaims
	validated := state.Progress.ValidatedClaims
	percent := 0
	if total > 0 {
		percent = int(float64(validated)/float64(total)*100 + 0.5)
	}
	return fmt.Sprintf("%d/%d (%d%%)", validated, total, percent)
}

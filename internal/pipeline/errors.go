package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode classifies a failed request for the caller
type ErrorCode string

const (
	CodeFileRead       ErrorCode = "FILE_READ_ERROR"
	CodeFileWrite      ErrorCode = "FILE_WRITE_ERROR"
	CodeStorage        ErrorCode = "STORAGE_ERROR"
	CodeNoState        ErrorCode = "NO_STATE_ERROR"
	CodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	CodeInvalidAction  ErrorCode = "INVALID_ACTION"
	CodeGeneral        ErrorCode = "GENERAL_ERROR"
)

// ProcessError is a request failure carrying its error code
type ProcessError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ProcessError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, err error, format string, args ...any) *ProcessError {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &ProcessError{Code: code, Message: msg, Err: err}
}

// CodeOf returns the error code of err, GENERAL_ERROR for unclassified errors
func CodeOf(err error) ErrorCode {
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeGeneral
}

type errorResponse struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
}

// encodeError renders err as the {"error","code"} payload
func encodeError(err error) string {
	resp := errorResponse{Error: err.Error(), Code: CodeOf(err)}
	if resp.Error == "" {
		resp.Error = "Unknown error occurred"
	}
	data, mErr := json.Marshal(resp)
	if mErr != nil {
		return fmt.Sprintf(`{"error":"Unknown error occurred","code":%q}`, CodeGeneral)
	}
	return string(data)
}

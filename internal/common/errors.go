package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Pipeline error kinds. Callers branch on these with errors.Is.
var (
	ErrEmptyResponse      = errors.New("empty model response")
	ErrInvalidJSON        = errors.New("invalid json")
	ErrOracleUnavailable  = errors.New("oracle unavailable")
	ErrEmptyCompletion    = errors.New("empty completion")
	ErrUnparsableResponse = errors.New("unparsable response")
	ErrAlreadyProcessed   = errors.New("already processed")
	ErrPersist            = errors.New("persist failed")
	ErrNoContent          = errors.New("no usable content")
)

const (
	CodeConfig             = "CONFIG_ERROR"
	CodeEmptyResponse      = "EMPTY_RESPONSE"
	CodeInvalidJSON        = "INVALID_JSON"
	CodeOracleUnavailable  = "ORACLE_UNAVAILABLE"
	CodeEmptyCompletion    = "EMPTY_COMPLETION"
	CodeUnparsableResponse = "UNPARSABLE_RESPONSE"
	CodeAlreadyProcessed   = "ALREADY_PROCESSED"
	CodePersist            = "PERSIST_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeNoContent          = "NO_CONTENT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeUnavailable        = "UNAVAILABLE"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Excerpt bounds diagnostic text attached to errors and log lines.
func Excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// CodeOf returns the Code of the outermost AppError in err's chain, or "".
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

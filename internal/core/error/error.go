package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RateLimitedMessage is returned when an identity has no admission tokens left.
	RateLimitedMessage = "rate limit exceeded, retry later"
	// InvalidInputMessage describes a structurally invalid request payload.
	InvalidInputMessage = "invalid request payload"
	// ExtractionErrorMessage is returned when no structured answer could be
	// extracted from the model's final text.
	ExtractionErrorMessage = "no valid structured response from the assistant"
	// SchemaMismatchMessage is returned when the extracted answer fails the
	// answer contract. Validation detail stays in logs.
	SchemaMismatchMessage = "assistant answer failed validation"
	// ToolBudgetMessage is returned when the tool-call round ceiling is reached
	// without a direct answer.
	ToolBudgetMessage = "tool-call budget exhausted"
	// ModelErrorMessage describes language-model transport failures.
	ModelErrorMessage = "language model request failed"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapModel wraps a language-model provider error with a consistent status
// code and message.
func WrapModel(err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Err:     err,
		Status:  http.StatusBadGateway,
		Message: ModelErrorMessage,
	}
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// Package errors provides centralized error definitions and error handling
// utilities for the Parley codebase. It defines domain-specific error types,
// sentinel errors, and the provider error classifier used by the debate
// orchestrator to decide fallback behavior.
//
// # Error Types
//
//   - ValidationError: invalid session setup or input; always synchronous
//     and never recoverable mid-session
//   - ProviderError: a failure reported by an AI provider, carrying the
//     provider ID so user-facing layers can render something sensible
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewValidationError("invalid debate setup: at least two participants required")
//	err := errors.NewProviderError("anthropic", "stream failed", cause)
//
// Checking errors:
//
//	var verr *errors.ValidationError
//	if errors.As(err, &verr) { ... }
//
//	switch errors.Classify(err) {
//	case errors.ClassVerification: ...
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors shared across the orchestration core.
var (
	// ErrSessionInactive indicates an operation that requires an active session.
	ErrSessionInactive = New("session is not active")
	// ErrSessionTerminal indicates an operation on a completed or failed session.
	ErrSessionTerminal = New("session already terminated")
	// ErrNoSession indicates that no session has been initialized.
	ErrNoSession = New("no session initialized")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
)

// ValidationError indicates invalid input or state. It is returned
// synchronously and never partially constructs the thing being validated.
type ValidationError struct {
	message string
	cause   error
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{message: message}
}

// NewValidationErrorWithCause creates a ValidationError wrapping a cause.
func NewValidationErrorWithCause(message string, cause error) *ValidationError {
	return &ValidationError{message: message, cause: cause}
}

func (e *ValidationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying cause, if any.
func (e *ValidationError) Unwrap() error { return e.cause }

// ProviderError indicates a failure reported by (or on behalf of) an AI
// provider. It carries the provider ID for event payloads and rendering.
type ProviderError struct {
	Provider string
	message  string
	cause    error
}

// NewProviderError creates a ProviderError for the given provider.
func NewProviderError(provider, message string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, message: message, cause: cause}
}

func (e *ProviderError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.message, e.cause)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.message)
}

// Unwrap returns the underlying cause, if any.
func (e *ProviderError) Unwrap() error { return e.cause }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return As(err, &verr)
}

package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "sync.interval_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the accepted logging.level values.
func ValidLogLevels() []string {
	return []string{"DEBUG", "INFO", "WARN", "ERROR"}
}

// Validate checks the configuration for invalid values.
// Returns a list of all validation errors found (empty if valid).
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateDebate()...)
	errs = append(errs, c.validateSync()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func (c *Config) validateDebate() []ValidationError {
	var errs []ValidationError

	if c.Debate.TurnPauseMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "debate.turn_pause_ms",
			Value:   c.Debate.TurnPauseMs,
			Message: "must not be negative",
		})
	}
	if c.Debate.MaxRounds < 1 {
		errs = append(errs, ValidationError{
			Field:   "debate.max_rounds",
			Value:   c.Debate.MaxRounds,
			Message: "must be at least 1",
		})
	}
	if c.Debate.MaxConsecutiveFailures < 1 {
		errs = append(errs, ValidationError{
			Field:   "debate.max_consecutive_failures",
			Value:   c.Debate.MaxConsecutiveFailures,
			Message: "must be at least 1",
		})
	}

	return errs
}

func (c *Config) validateSync() []ValidationError {
	var errs []ValidationError

	if c.Sync.IntervalMs < 1 {
		errs = append(errs, ValidationError{
			Field:   "sync.interval_ms",
			Value:   c.Sync.IntervalMs,
			Message: "must be at least 1",
		})
	}
	if c.Sync.MaxBufferChars < 1 {
		errs = append(errs, ValidationError{
			Field:   "sync.max_buffer_chars",
			Value:   c.Sync.MaxBufferChars,
			Message: "must be at least 1",
		})
	}
	if c.Sync.StartDelayMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "sync.start_delay_ms",
			Value:   c.Sync.StartDelayMs,
			Message: "must not be negative",
		})
	}
	if c.Sync.StartTimeoutMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "sync.start_timeout_ms",
			Value:   c.Sync.StartTimeoutMs,
			Message: "must not be negative",
		})
	}

	return errs
}

func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError

	level := strings.ToUpper(c.Logging.Level)
	if !slices.Contains(ValidLogLevels(), level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errs
}

// Package util provides shared error types for the mesh router.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrInvalidRule.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., InvalidRuleError, ConfigError). Each type
//     implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
//
// All custom error types must implement:
//
//	Error() string           – human-readable message
//	Unwrap() error           – if the type wraps another error
//	Is(target error) bool    – for errors.Is() compatibility
package util

import (
	"errors"
	"fmt"
)

// Common sentinel errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRule   = errors.New("illegal route rule")
	ErrConfigInvalid = errors.New("invalid configuration")
	ErrResolveFailed = errors.New("mesh address resolution failed")
)

// InvalidRuleError reports rule text that cannot be turned into a routing rule.
type InvalidRuleError struct {
	Rule    string
	Message string
}

// Error implements the error interface.
func (e *InvalidRuleError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("illegal route rule %q: %s", e.Rule, e.Message)
	}
	return fmt.Sprintf("illegal route rule: %s", e.Message)
}

// Is checks if the error matches the target.
func (e *InvalidRuleError) Is(target error) bool {
	if target == ErrInvalidRule {
		return true
	}
	_, ok := target.(*InvalidRuleError)
	return ok
}

// NewInvalidRuleError creates a new InvalidRuleError.
func NewInvalidRuleError(rule, message string) *InvalidRuleError {
	return &InvalidRuleError{Rule: rule, Message: message}
}

// ConfigError represents a configuration-related error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "config error: " + e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// ResolveError represents a failed mesh sidecar lookup.
type ResolveError struct {
	Domain string
	Cause  error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("can't find target service addresses for %s: %v", e.Domain, e.Cause)
	}
	return fmt.Sprintf("can't find target service addresses for %s", e.Domain)
}

// Unwrap returns the underlying error.
func (e *ResolveError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ResolveError) Is(target error) bool {
	if target == ErrResolveFailed {
		return true
	}
	_, ok := target.(*ResolveError)
	return ok || errors.Is(e.Cause, target)
}

// NewResolveError creates a new ResolveError.
func NewResolveError(domain string, cause error) *ResolveError {
	return &ResolveError{Domain: domain, Cause: cause}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

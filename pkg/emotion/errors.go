package emotion

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrEmptyScores is returned when a backend reports no scores.
	ErrEmptyScores = errors.New("emotion: empty score distribution")

	// ErrInvalidScore is returned for negative or NaN scores.
	ErrInvalidScore = errors.New("emotion: invalid score")

	// ErrNoFace is returned when enforce-detection is on and no face was found.
	ErrNoFace = errors.New("emotion: no face detected in region")

	// ErrNoAPIKey is returned when an API key is required but missing.
	ErrNoAPIKey = errors.New("emotion: API key required")

	// ErrNoBaseURL is returned when a service URL is required but missing.
	ErrNoBaseURL = errors.New("emotion: base URL required")

	// ErrEmptyRegion is returned for a nil or zero-area region.
	ErrEmptyRegion = errors.New("emotion: empty region")

	// ErrProviderUnavailable is returned when no classifiers are available.
	ErrProviderUnavailable = errors.New("emotion: no classifiers available")
)

// APIError represents an error response from a model service.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the API.
	Message string

	// Provider identifies which backend returned the error.
	Provider string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("emotion [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRetryable returns true if the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// ProviderError wraps an error with backend context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("emotion [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with backend context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// ChainError aggregates errors from all classifiers in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "emotion chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("emotion chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("emotion chain: all %d classifiers failed, last error: %v",
		len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns all underlying errors so errors.Is sees each of them.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}

package tts

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/teslashibe/go-emotive/internal/httpc"
)

var (
	// ErrNoAPIKey is returned by constructors that need credentials.
	ErrNoAPIKey = errors.New("tts: API key required")

	// ErrNoVoiceID is returned when a provider needs a voice and has none.
	ErrNoVoiceID = errors.New("tts: voice ID required")

	// ErrEmptyText is returned for a blank phrase.
	ErrEmptyText = errors.New("tts: empty text")

	// ErrEmptyAudio is returned when a provider answers without audio.
	ErrEmptyAudio = errors.New("tts: empty audio response")

	// ErrProviderUnavailable is returned when a chain has no providers.
	ErrProviderUnavailable = errors.New("tts: no providers available")
)

// APIError is a non-2xx answer from a speech API.
type APIError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tts [%s]: HTTP %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("tts [%s]: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsUnauthorized reports a rejected API key. Retrying or falling back to the
// same provider will not help.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRetryable reports rate limiting and server failures.
func (e *APIError) IsRetryable() bool {
	return httpc.Retryable(e.StatusCode)
}

// ProviderError tags an error with the provider that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("tts [%s]: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError returns nil for a nil err.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// ChainError collects one error per provider tried.
type ChainError struct {
	Errors []error
}

func (e *ChainError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "tts chain: no providers tried"
	case 1:
		return fmt.Sprintf("tts chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("tts chain: %d providers failed, last: %v", len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap exposes every provider error to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}

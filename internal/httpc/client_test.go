package httpc

import (
	"net/http"
	"testing"
	"time"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, false},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
	}
	for _, tc := range tests {
		if got := Retryable(tc.status); got != tc.want {
			t.Errorf("Retryable(%d) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	if got := Backoff(base, 0); got != 0 {
		t.Errorf("attempt 0: got %v, want 0", got)
	}
	if got := Backoff(base, 3); got != 300*time.Millisecond {
		t.Errorf("attempt 3: got %v, want 300ms", got)
	}
}

func TestNewClientTimeout(t *testing.T) {
	c := NewClient(InferenceTimeout)
	if c.Timeout != InferenceTimeout {
		t.Errorf("timeout: got %v, want %v", c.Timeout, InferenceTimeout)
	}
	if c.Transport == nil {
		t.Error("expected transport to be set")
	}
}

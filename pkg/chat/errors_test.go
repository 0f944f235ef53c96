package chat

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Messages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{NewMissingModelError(), "missing_model: model is required"},
		{NewMissingBaseURLError(), "missing_base_url: base URL is required"},
		{NewServerError(500, "boom"), "server_error: HTTP 500: boom"},
		{NewServerError(503, ""), "server_error: HTTP 503"},
		{NewRateLimitError(), "rate_limit: HTTP 429"},
		{NewInvalidValueError("temperature must be between 0.0 and 2.0, got 3"), "invalid_value: temperature must be between 0.0 and 2.0, got 3"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NewRateLimitError()); got != ErrorKindRateLimit {
		t.Errorf("KindOf = %q, want %q", got, ErrorKindRateLimit)
	}

	// Wrapped errors still report their kind.
	wrapped := fmt.Errorf("completing request: %w", NewNetworkError("connection refused"))
	if got := KindOf(wrapped); got != ErrorKindNetwork {
		t.Errorf("KindOf(wrapped) = %q, want %q", got, ErrorKindNetwork)
	}

	// Foreign errors report no kind.
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
}

func TestServerError_CarriesStatusAndBody(t *testing.T) {
	err := NewServerError(500, "boom")
	if err.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", err.StatusCode)
	}
	if err.Body != "boom" {
		t.Errorf("Body = %q, want %q", err.Body, "boom")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Error() should carry the body: %q", err.Error())
	}
}

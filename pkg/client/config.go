package client

import (
	"net/http"
	"time"
)

// DefaultTimeout applies to buffered completions when no timeout is
// configured. Streaming requests never carry a timeout; their lifetime is
// controlled by context cancellation.
const DefaultTimeout = 120 * time.Second

// Config holds optional transport settings for a Client. The zero value is
// usable.
type Config struct {
	// Timeout bounds a buffered Complete call end to end (default:
	// DefaultTimeout). Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient replaces the internally constructed *http.Client. Its
	// Timeout field, if any, is honored for Complete but stripped for
	// Stream.
	HTTPClient *http.Client
}

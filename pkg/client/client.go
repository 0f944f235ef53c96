package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chatwire-dev/chatwire/pkg/chat"
	"github.com/chatwire-dev/chatwire/pkg/debug"
	"github.com/chatwire-dev/chatwire/pkg/observability"
)

const completionsPath = "/v1/chat/completions"

// maxErrorBody caps how much of a non-2xx response body is carried in a
// server error.
const maxErrorBody = 64 * 1024

// Client performs HTTP requests against an OpenAI-compatible Chat
// Completions backend. All fields are read-only after New returns.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New creates a Client for the backend at baseURL. It fails with a
// missing_base_url error when baseURL is empty. The API key is not
// validated: an empty key is sent as-is and rejected by the server at call
// time, not at construction time.
func New(baseURL, apiKey string, cfg Config) (*Client, error) {
	if baseURL == "" {
		return nil, chat.NewMissingBaseURLError()
	}

	// Normalize: remove trailing slash from base URL.
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}, nil
}

// Complete performs a buffered (non-streaming) completion. All failures are
// returned as *chat.Error values; no retries are performed.
func (c *Client) Complete(ctx context.Context, req *chat.Request) (*chat.Response, error) {
	start := time.Now()
	resp, err := c.complete(ctx, req)
	observability.RequestDuration.WithLabelValues("complete", req.Model).Observe(time.Since(start).Seconds())
	observability.RequestsTotal.WithLabelValues("complete", outcome(err), req.Model).Inc()
	return resp, err
}

func (c *Client) complete(ctx context.Context, req *chat.Request) (*chat.Response, error) {
	// Ensure we are not in streaming mode for Complete.
	reqCopy := *req
	reqCopy.Stream = false

	httpReq, err := c.newRequest(ctx, &reqCopy)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, chat.NewNetworkError(err.Error())
	}
	defer httpResp.Body.Close()

	if err := checkStatus(httpResp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, chat.NewNetworkError("reading response body: " + err.Error())
	}

	var resp chat.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, chat.NewDecodingError(err.Error())
	}
	if resp.ID == "" {
		return nil, chat.NewDecodingError("response missing required field id")
	}
	if len(resp.Choices) == 0 {
		return nil, chat.NewMalformedResponseError("response has no choices")
	}

	if resp.Usage != nil {
		observability.TokensTotal.WithLabelValues(resp.Model, "prompt").Add(float64(resp.Usage.PromptTokens))
		observability.TokensTotal.WithLabelValues(resp.Model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	return &resp, nil
}

// Stream performs a streaming completion. It immediately returns a channel
// of incremental chunks, closed on natural completion ([DONE] or EOF),
// context cancellation, or any failure. Setup and HTTP failures — including
// 429 and other non-2xx statuses — terminate the sequence without yielding
// an element; causes are logged and counted, not surfaced through the
// channel. The sequence is not restartable.
func (c *Client) Stream(ctx context.Context, req *chat.Request) <-chan chat.Chunk {
	ch := make(chan chat.Chunk, 16)

	// Force streaming mode.
	reqCopy := *req
	reqCopy.Stream = true

	go func() {
		defer close(ch)

		start := time.Now()
		var failure error
		defer func() {
			observability.RequestDuration.WithLabelValues("stream", req.Model).Observe(time.Since(start).Seconds())
			observability.RequestsTotal.WithLabelValues("stream", outcome(failure), req.Model).Inc()
		}()

		httpReq, err := c.newRequest(ctx, &reqCopy)
		if err != nil {
			failure = err
			slog.Warn("stream setup failed", "error", err.Error())
			return
		}
		httpReq.Header.Set("Accept", "text/event-stream")

		// A stream can legitimately outlive any fixed timeout, so use a
		// client without one. The context controls the request lifetime.
		streamClient := &http.Client{Transport: c.httpClient.Transport}

		httpResp, err := streamClient.Do(httpReq)
		if err != nil {
			failure = chat.NewNetworkError(err.Error())
			if ctx.Err() == nil {
				slog.Warn("stream request failed", "error", err.Error())
			}
			return
		}
		defer httpResp.Body.Close()

		if err := checkStatus(httpResp); err != nil {
			failure = err
			slog.Warn("stream rejected by backend", "error", err.Error())
			return
		}

		observability.ActiveStreams.Inc()
		defer observability.ActiveStreams.Dec()

		parseSSEStream(ctx, httpResp.Body, ch)
	}()

	return ch
}

// newRequest marshals the chat request and builds the HTTP request with the
// standard headers. Failures map to encoding_failed or invalid_url.
func (c *Client) newRequest(ctx context.Context, req *chat.Request) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, chat.NewEncodingError(err.Error())
	}

	endpoint := c.baseURL + completionsPath
	if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, chat.NewInvalidURLError("invalid base URL: " + c.baseURL)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, chat.NewInvalidURLError(err.Error())
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	debug.Log("client", "request built", "url", endpoint, "model", req.Model, "stream", req.Stream)
	debug.Raw("client", string(body))

	return httpReq, nil
}

// checkStatus maps a non-2xx response to the typed error: 429 becomes
// rate_limit regardless of body content, everything else a server_error
// carrying the status and raw body.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return chat.NewRateLimitError()
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return chat.NewServerError(resp.StatusCode, string(body))
}

// outcome renders an error as a metrics label value.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := chat.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

// Close releases idle connections held by the transport.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

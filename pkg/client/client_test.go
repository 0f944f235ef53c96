package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chatwire-dev/chatwire/pkg/chat"
)

func mustRequest(t *testing.T, opts ...chat.Option) *chat.Request {
	t.Helper()
	req, err := chat.NewRequest("test-model", []chat.Message{chat.User("hi")}, opts...)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

func mustClient(t *testing.T, baseURL, apiKey string) *Client {
	t.Helper()
	c, err := New(baseURL, apiKey, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

const completionBody = `{
	"id": "chatcmpl-123",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "test-model",
	"choices": [{
		"index": 0,
		"message": {"role": "assistant", "content": "Hello there"},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 9, "completion_tokens": 12, "total_tokens": 21}
}`

func TestNew_MissingBaseURL(t *testing.T) {
	_, err := New("", "key", Config{})
	if chat.KindOf(err) != chat.ErrorKindMissingBaseURL {
		t.Errorf("kind = %q, want %q", chat.KindOf(err), chat.ErrorKindMissingBaseURL)
	}
}

func TestComplete_Success(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body is not valid JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody)
	}))
	defer server.Close()

	c := mustClient(t, server.URL, "sk-test")
	resp, err := c.Complete(context.Background(), mustRequest(t))
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q, want /v1/chat/completions", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer sk-test")
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("request model = %v, want test-model", gotBody["model"])
	}

	if resp.ID != "chatcmpl-123" {
		t.Errorf("id = %q, want chatcmpl-123", resp.ID)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "Hello there" {
		t.Errorf("unexpected choices: %+v", resp.Choices)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 21 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
}

func TestComplete_ForcesStreamOff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		// stream must be absent or false even when the caller set it.
		if v, ok := body["stream"]; ok && v == true {
			t.Error("Complete sent stream=true")
		}
		fmt.Fprint(w, completionBody)
	}))
	defer server.Close()

	c := mustClient(t, server.URL, "")
	req := mustRequest(t, chat.WithStream())
	if _, err := c.Complete(context.Background(), req); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	// The caller's request is not mutated.
	if !req.Stream {
		t.Error("caller request stream flag was cleared")
	}
}

// failingMessage is a Message whose wire encoding always fails.
type failingMessage struct{}

func (failingMessage) MarshalJSON() ([]byte, error) {
	return nil, errors.New("unencodable message")
}

func (failingMessage) MessageRole() chat.Role { return chat.RoleUser }

func TestComplete_InvalidBaseURL(t *testing.T) {
	// Non-empty but malformed base URLs pass New and surface at call time.
	for _, baseURL := range []string{"not a url", "/relative/only", "http://"} {
		c := mustClient(t, baseURL, "key")
		_, err := c.Complete(context.Background(), mustRequest(t))
		if chat.KindOf(err) != chat.ErrorKindInvalidURL {
			t.Errorf("base URL %q: kind = %q, want %q", baseURL, chat.KindOf(err), chat.ErrorKindInvalidURL)
		}
	}
}

func TestComplete_EncodingFailure(t *testing.T) {
	req, err := chat.NewRequest("test-model", []chat.Message{failingMessage{}})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	c := mustClient(t, "http://backend.invalid", "key")
	_, err = c.Complete(context.Background(), req)
	if chat.KindOf(err) != chat.ErrorKindEncodingFailed {
		t.Errorf("kind = %q, want %q", chat.KindOf(err), chat.ErrorKindEncodingFailed)
	}
}

func TestStream_ClosesOnEncodingFailure(t *testing.T) {
	req, err := chat.NewRequest("test-model", []chat.Message{failingMessage{}})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	c := mustClient(t, "http://backend.invalid", "key")
	for range c.Stream(context.Background(), req) {
		t.Error("unexpected chunk from unencodable request")
	}
}

func TestComplete_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "slow down"}}`)
	}))
	defer server.Close()

	c := mustClient(t, server.URL, "key")
	_, err := c.Complete(context.Background(), mustRequest(t))

	if chat.KindOf(err) != chat.ErrorKindRateLimit {
		t.Fatalf("kind = %q, want %q", chat.KindOf(err), chat.ErrorKindRateLimit)
	}
	var chatErr *chat.Error
	if !errors.As(err, &chatErr) {
		t.Fatal("error is not *chat.Error")
	}
	if chatErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", chatErr.StatusCode)
	}
}

func TestComplete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer server.Close()

	c := mustClient(t, server.URL, "key")
	_, err := c.Complete(context.Background(), mustRequest(t))

	if chat.KindOf(err) != chat.ErrorKindServer {
		t.Fatalf("kind = %q, want %q", chat.KindOf(err), chat.ErrorKindServer)
	}
	var chatErr *chat.Error
	if !errors.As(err, &chatErr) {
		t.Fatal("error is not *chat.Error")
	}
	if chatErr.StatusCode != 500 || chatErr.Body != "boom" {
		t.Errorf("got status=%d body=%q, want 500/boom", chatErr.StatusCode, chatErr.Body)
	}
}

func TestComplete_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json at all")
	}))
	defer server.Close()

	c := mustClient(t, server.URL, "key")
	_, err := c.Complete(context.Background(), mustRequest(t))

	if chat.KindOf(err) != chat.ErrorKindDecodingFailed {
		t.Errorf("kind = %q, want %q", chat.KindOf(err), chat.ErrorKindDecodingFailed)
	}
}

func TestComplete_MissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"x"}}]}`)
	}))
	defer server.Close()

	c := mustClient(t, server.URL, "key")
	_, err := c.Complete(context.Background(), mustRequest(t))

	if chat.KindOf(err) != chat.ErrorKindDecodingFailed {
		t.Errorf("kind = %q, want %q", chat.KindOf(err), chat.ErrorKindDecodingFailed)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"chatcmpl-1","object":"chat.completion","choices":[]}`)
	}))
	defer server.Close()

	c := mustClient(t, server.URL, "key")
	_, err := c.Complete(context.Background(), mustRequest(t))

	if chat.KindOf(err) != chat.ErrorKindMalformedResponse {
		t.Errorf("kind = %q, want %q", chat.KindOf(err), chat.ErrorKindMalformedResponse)
	}
}

func TestComplete_NetworkError(t *testing.T) {
	// A server that is immediately closed guarantees connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := mustClient(t, server.URL, "key")
	_, err := c.Complete(context.Background(), mustRequest(t))

	if chat.KindOf(err) != chat.ErrorKindNetwork {
		t.Errorf("kind = %q, want %q", chat.KindOf(err), chat.ErrorKindNetwork)
	}
}

func TestComplete_TrailingSlashBaseURL(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, completionBody)
	}))
	defer server.Close()

	c := mustClient(t, server.URL+"/", "key")
	if _, err := c.Complete(context.Background(), mustRequest(t)); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q, want /v1/chat/completions", gotPath)
	}
}

func streamHandler(t *testing.T, events []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", got)
		}
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		if body["stream"] != true {
			t.Error("stream request did not carry stream=true")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer does not support flushing")
		}
		for _, e := range events {
			fmt.Fprintf(w, "data: %s\n\n", e)
			flusher.Flush()
		}
	}
}

func TestStream_Success(t *testing.T) {
	events := []string{
		`{"choices":[{"index":0,"delta":{"role":"assistant","content":""},"finish_reason":null}]}`,
		`{"choices":[{"index":0,"delta":{"content":"Hel"},"finish_reason":null}]}`,
		`{"choices":[{"index":0,"delta":{"content":"lo"},"finish_reason":null}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		"[DONE]",
	}
	server := httptest.NewServer(streamHandler(t, events))
	defer server.Close()

	c := mustClient(t, server.URL, "key")

	var text strings.Builder
	var count int
	for chunk := range c.Stream(context.Background(), mustRequest(t, chat.WithStream())) {
		count++
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != nil {
				text.WriteString(*choice.Delta.Content)
			}
		}
	}

	if count != 4 {
		t.Errorf("expected 4 chunks, got %d", count)
	}
	if text.String() != "Hello" {
		t.Errorf("accumulated text = %q, want %q", text.String(), "Hello")
	}
}

func TestStream_ForcesStreamOn(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, []string{"[DONE]"}))
	defer server.Close()

	c := mustClient(t, server.URL, "key")
	// The caller did not set stream; the client must.
	for range c.Stream(context.Background(), mustRequest(t)) {
	}
}

func TestStream_ClosesOnRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := mustClient(t, server.URL, "key")
	ch := c.Stream(context.Background(), mustRequest(t))

	var count int
	for range ch {
		count++
	}
	if count != 0 {
		t.Errorf("expected channel to close without chunks, got %d", count)
	}
}

func TestStream_ClosesOnNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := mustClient(t, server.URL, "key")
	for range c.Stream(context.Background(), mustRequest(t)) {
		t.Error("unexpected chunk from failed stream")
	}
}

func TestStream_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"x\"},\"finish_reason\":null}]}\n\n")
		flusher.Flush()
		// Hold the connection open until the test ends; the client must
		// get out via its context, not server-side EOF.
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := mustClient(t, server.URL, "key")
	ch := c.Stream(ctx, mustRequest(t))

	// Receive the first chunk, then cancel.
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first chunk")
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			// One buffered chunk may still be in flight; the channel must
			// close right after.
			select {
			case _, ok := <-ch:
				if ok {
					t.Error("channel still open after cancellation")
				}
			case <-time.After(5 * time.Second):
				t.Fatal("channel not closed after cancellation")
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancellation")
	}
}

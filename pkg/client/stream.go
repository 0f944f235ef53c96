package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/chatwire-dev/chatwire/pkg/chat"
	"github.com/chatwire-dev/chatwire/pkg/debug"
	"github.com/chatwire-dev/chatwire/pkg/observability"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// eventDecoder reassembles SSE event frames from arbitrarily split byte
// chunks. SSE gives no guarantee that a complete event — or even a complete
// line — arrives in one network read, so everything not yet resolved into a
// full event stays buffered.
type eventDecoder struct {
	buf []byte
}

// feed appends newly arrived bytes and returns the raw text of every event
// completed by them, in arrival order. An event ends at a blank line (two
// consecutive newlines); the remainder stays buffered as the start of the
// next, still-incomplete event.
func (d *eventDecoder) feed(p []byte) []string {
	d.buf = append(d.buf, p...)

	var events []string
	for {
		i := bytes.Index(d.buf, []byte("\n\n"))
		if i < 0 {
			return events
		}
		events = append(events, string(d.buf[:i]))
		d.buf = d.buf[i+2:]
	}
}

// parseSSEStream reads Chat Completions SSE events from body and sends each
// decoded chunk on ch, in arrival order, until the [DONE] sentinel, source
// exhaustion, or context cancellation. EOF without [DONE] is treated as a
// clean end. The channel is NOT closed by this function; the caller is
// responsible for closing it.
//
// SSE format expected:
//
//	data: {"choices":[...]}\n
//	\n
//	data: [DONE]\n
//	\n
//
// Malformed payloads are logged and skipped; a single bad frame must not
// abort the stream.
func parseSSEStream(ctx context.Context, body io.Reader, ch chan<- chat.Chunk) {
	var dec eventDecoder
	rbuf := make([]byte, 4096)

	for {
		if ctx.Err() != nil {
			return
		}

		n, err := body.Read(rbuf)
		if n > 0 {
			// Multiple complete events may arrive in a single burst;
			// drain them all before the next read.
			for _, event := range dec.feed(rbuf[:n]) {
				if emitEvent(ctx, event, ch) {
					return
				}
			}
		}
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				slog.Warn("SSE stream read error", "error", err.Error())
			}
			return
		}
	}
}

// emitEvent extracts the data payloads of one raw event and sends each
// decoded chunk on ch. It reports whether the stream is finished, either
// because the [DONE] sentinel was seen or the consumer cancelled.
func emitEvent(ctx context.Context, event string, ch chan<- chat.Chunk) bool {
	for _, line := range strings.Split(event, "\n") {
		line = strings.TrimSuffix(line, "\r")

		// Lines without the data prefix are ignored: comments (":"),
		// keep-alives, other SSE field types.
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := line[len(dataPrefix):]

		debug.Raw("stream", payload)

		if payload == doneSentinel {
			return true
		}

		var chunk chat.Chunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Warn("skipping malformed SSE payload",
				"error", err.Error(),
				"data", truncate(payload, 200),
			)
			continue
		}

		select {
		case ch <- chunk:
			observability.StreamChunksTotal.Inc()
		case <-ctx.Done():
			return true
		}
	}
	return false
}

// truncate limits a string to maxLen characters for log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

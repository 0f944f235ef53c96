// Package history defines conversation history storage. A Store keeps the
// ordered turns of a conversation so that follow-up completion requests can
// replay the full context. Implementations live in the memory and postgres
// subpackages.
package history

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/chatwire-dev/chatwire/pkg/chat"
)

// ErrNotFound is returned when a conversation has no stored turns.
var ErrNotFound = errors.New("conversation not found")

// Record is one stored conversation turn: the message role plus the exact
// wire form the message had when it was sent or received. Keeping the raw
// payload means a replayed conversation is byte-for-byte what the backend
// saw, regardless of which Message variant produced it.
type Record struct {
	Role    chat.Role
	Payload json.RawMessage
}

// NewRecord captures a message as a storable record.
func NewRecord(msg chat.Message) (Record, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return Record{}, err
	}
	return Record{Role: msg.MessageRole(), Payload: payload}, nil
}

// MarshalJSON re-emits the stored wire form unchanged.
func (r Record) MarshalJSON() ([]byte, error) {
	return r.Payload, nil
}

// MessageRole returns the stored role.
func (r Record) MessageRole() chat.Role {
	return r.Role
}

// Ensure Record can be placed directly into a request message list.
var _ chat.Message = Record{}

// Store persists conversation turns keyed by conversation ID.
type Store interface {
	// Append adds messages to the end of a conversation, creating the
	// conversation on first use.
	Append(ctx context.Context, conversationID string, msgs ...chat.Message) error

	// Messages returns all turns of a conversation in append order.
	// Returns ErrNotFound for an unknown conversation.
	Messages(ctx context.Context, conversationID string) ([]Record, error)

	// Clear removes a conversation and all its turns. Returns ErrNotFound
	// for an unknown conversation.
	Clear(ctx context.Context, conversationID string) error

	// Close releases any resources held by the store.
	Close() error
}

// Package memory provides an in-memory implementation of history.Store for
// testing and lightweight deployments. Conversations are stored in memory
// and lost when the process restarts. Optional LRU eviction limits memory
// usage.
package memory

import (
	"container/list"
	"context"
	"sync"

	"github.com/chatwire-dev/chatwire/pkg/chat"
	"github.com/chatwire-dev/chatwire/pkg/history"
)

// conversation holds the turns of one conversation and its LRU position.
type conversation struct {
	records []history.Record
	lruElem *list.Element
}

// Store is an in-memory history.Store with optional LRU eviction of whole
// conversations.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
	lruList       *list.List // front = most recently used
	maxSize       int        // 0 = unlimited
}

var _ history.Store = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the least recently used conversation is
// evicted when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		conversations: make(map[string]*conversation),
		lruList:       list.New(),
		maxSize:       maxSize,
	}
}

// Append adds messages to the end of a conversation, creating it on first
// use. Each append marks the conversation as most recently used.
func (s *Store) Append(_ context.Context, conversationID string, msgs ...chat.Message) error {
	records := make([]history.Record, 0, len(msgs))
	for _, msg := range msgs {
		rec, err := history.NewRecord(msg)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		if s.maxSize > 0 && len(s.conversations) >= s.maxSize {
			s.evictOldest()
		}
		conv = &conversation{lruElem: s.lruList.PushFront(conversationID)}
		s.conversations[conversationID] = conv
	} else {
		s.lruList.MoveToFront(conv.lruElem)
	}

	conv.records = append(conv.records, records...)
	return nil
}

// Messages returns all turns of a conversation in append order.
func (s *Store) Messages(_ context.Context, conversationID string) ([]history.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, history.ErrNotFound
	}
	s.lruList.MoveToFront(conv.lruElem)

	out := make([]history.Record, len(conv.records))
	copy(out, conv.records)
	return out, nil
}

// Clear removes a conversation and all its turns.
func (s *Store) Clear(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return history.ErrNotFound
	}

	s.lruList.Remove(conv.lruElem)
	delete(s.conversations, conversationID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// evictOldest removes the least recently used conversation.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}

	id := back.Value.(string)
	s.lruList.Remove(back)
	delete(s.conversations, id)
}

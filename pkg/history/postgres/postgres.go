// Package postgres provides a PostgreSQL implementation of history.Store.
// It uses pgx/v5 for connection pooling and JSONB for message payload
// storage.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatwire-dev/chatwire/pkg/chat"
	"github.com/chatwire-dev/chatwire/pkg/history"
)

// Store is a PostgreSQL-backed history.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ history.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Append adds messages to the end of a conversation, creating the
// conversation on first use. Ordering follows the BIGSERIAL primary key, so
// concurrent appends to the same conversation interleave but each batch
// keeps its internal order within the transaction.
func (s *Store) Append(ctx context.Context, conversationID string, msgs ...chat.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, msg := range msgs {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshaling message: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO conversation_messages (conversation_id, role, payload)
			VALUES ($1, $2, $3)
		`, conversationID, string(msg.MessageRole()), payload); err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Messages returns all turns of a conversation in append order.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]history.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT role, payload
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY id
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var records []history.Record
	for rows.Next() {
		var role string
		var payload []byte
		if err := rows.Scan(&role, &payload); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		records = append(records, history.Record{
			Role:    chat.Role(role),
			Payload: json.RawMessage(payload),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}

	if len(records) == 0 {
		return nil, history.ErrNotFound
	}
	return records, nil
}

// Clear removes a conversation and all its turns.
func (s *Store) Clear(ctx context.Context, conversationID string) error {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM conversation_messages WHERE conversation_id = $1
	`, conversationID)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return history.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

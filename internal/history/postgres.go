package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps one JSONB list per client in recent_lists. The schema
// is created by Migrate.
type PostgresStore struct {
	pool     *pgxpool.Pool
	capacity int
}

// NewPostgresStore returns a store using pool. A capacity <= 0 means
// DefaultCapacity.
func NewPostgresStore(pool *pgxpool.Pool, capacity int) *PostgresStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &PostgresStore{pool: pool, capacity: capacity}
}

func (s *PostgresStore) List(ctx context.Context, clientID string) ([]Entry, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT entries FROM recent_lists WHERE client_id = $1`, clientID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load recent list: %w", err)
	}
	return decodeEntries(raw)
}

// Add runs the read-modify-write in one transaction with the client's row
// locked, so concurrent adds for the same client serialize. The row is
// created first so a client's first adds have something to lock.
func (s *PostgresStore) Add(ctx context.Context, clientID string, e Entry) ([]Entry, error) {
	var list []Entry

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO recent_lists (client_id) VALUES ($1) ON CONFLICT (client_id) DO NOTHING`, clientID,
		)
		if err != nil {
			return fmt.Errorf("create recent list: %w", err)
		}

		var raw []byte
		err = tx.QueryRow(ctx,
			`SELECT entries FROM recent_lists WHERE client_id = $1 FOR UPDATE`, clientID,
		).Scan(&raw)
		if err != nil {
			return fmt.Errorf("lock recent list: %w", err)
		}

		current, err := decodeEntries(raw)
		if err != nil {
			return err
		}
		list = Push(current, e, s.capacity)

		payload, err := encodeEntries(list)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE recent_lists SET entries = $2, updated_at = now() WHERE client_id = $1`,
			clientID, payload,
		)
		if err != nil {
			return fmt.Errorf("save recent list: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *PostgresStore) Clear(ctx context.Context, clientID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM recent_lists WHERE client_id = $1`, clientID); err != nil {
		return fmt.Errorf("clear recent list: %w", err)
	}
	return nil
}

// Prune deletes lists not updated since cutoff.
func (s *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM recent_lists WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune recent lists: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close is a no-op; the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }

func decodeEntries(raw []byte) ([]Entry, error) {
	if len(raw) == 0 {
		return []Entry{}, nil
	}
	var list []Entry
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode recent list: %w", err)
	}
	if list == nil {
		list = []Entry{}
	}
	return list, nil
}

func encodeEntries(list []Entry) (string, error) {
	payload, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode recent list: %w", err)
	}
	return string(payload), nil
}

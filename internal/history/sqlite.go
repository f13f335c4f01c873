package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeLayout sorts lexicographically in time order.
const timeLayout = "2006-01-02 15:04:05.000000000"

// SQLiteStore keeps recent lists in a local SQLite file. The CLI uses it so
// the list survives between invocations.
type SQLiteStore struct {
	db       *sql.DB
	capacity int
}

// OpenSQLite opens or creates the database at path and ensures the schema
// exists. A capacity <= 0 means DefaultCapacity.
func OpenSQLite(path string, capacity int) (*SQLiteStore, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db, capacity: capacity}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS recent_lists (
		client_id  TEXT PRIMARY KEY,
		entries    TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) List(ctx context.Context, clientID string) ([]Entry, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT entries FROM recent_lists WHERE client_id = ?`, clientID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load recent list: %w", err)
	}
	return decodeEntries([]byte(raw))
}

func (s *SQLiteStore) Add(ctx context.Context, clientID string, e Entry) ([]Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT entries FROM recent_lists WHERE client_id = ?`, clientID,
	).Scan(&raw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load recent list: %w", err)
	}

	current, err := decodeEntries([]byte(raw))
	if err != nil {
		return nil, err
	}
	list := Push(current, e, s.capacity)

	payload, err := encodeEntries(list)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recent_lists (client_id, entries, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (client_id) DO UPDATE SET entries = excluded.entries, updated_at = excluded.updated_at`,
		clientID, payload, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("save recent list: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return list, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, clientID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM recent_lists WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("clear recent list: %w", err)
	}
	return nil
}

// Prune deletes lists not updated since cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM recent_lists WHERE updated_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune recent lists: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

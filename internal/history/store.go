// Package history keeps the short list of files a client recently converted
// or transformed.
//
// Every backend stores the whole list per client and applies Push, so the
// capacity and de-duplication rules live in one place:
//
//   - newest entry first
//   - an entry with the same file name and operation replaces the older one
//   - the oldest entry is evicted when the list is full
package history

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DefaultCapacity is the number of entries kept per client.
const DefaultCapacity = 5

var (
	// ErrNoClient is returned when an operation has no client ID.
	ErrNoClient = errors.New("client id is required")

	// ErrInvalidEntry is returned for entries without a file name or operation.
	ErrInvalidEntry = errors.New("entry needs a file name and an operation")
)

// Entry is one recent file operation.
type Entry struct {
	FileName  string    `json:"fileName"`
	Operation string    `json:"operation"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists recent lists keyed by client ID.
type Store interface {
	// List returns the client's entries, newest first.
	List(ctx context.Context, clientID string) ([]Entry, error)
	// Add records e and returns the updated list.
	Add(ctx context.Context, clientID string, e Entry) ([]Entry, error)
	// Clear removes every entry of the client.
	Clear(ctx context.Context, clientID string) error
	Close() error
}

// Push returns list with e at the front. An existing entry with the same
// file name and operation is removed first, and the result is cut to
// capacity. list is not modified.
func Push(list []Entry, e Entry, capacity int) []Entry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	out := make([]Entry, 0, capacity)
	out = append(out, e)
	for _, old := range list {
		if len(out) == capacity {
			break
		}
		if sameFile(old, e) {
			continue
		}
		out = append(out, old)
	}
	return out
}

func sameFile(a, b Entry) bool {
	return a.FileName == b.FileName && a.Operation == b.Operation
}

// normalize validates e and fills in CreatedAt.
func normalize(e Entry, now func() time.Time) (Entry, error) {
	e.FileName = strings.TrimSpace(e.FileName)
	e.Operation = strings.TrimSpace(e.Operation)
	if e.FileName == "" || e.Operation == "" {
		return Entry{}, ErrInvalidEntry
	}
	if e.Size < 0 {
		e.Size = 0
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func checkClient(clientID string) error {
	if strings.TrimSpace(clientID) == "" {
		return ErrNoClient
	}
	return nil
}

// Recent is a capped recent list bound to one backend.
type Recent struct {
	store Store
	now   func() time.Time
}

// NewRecent wraps store.
func NewRecent(store Store) *Recent {
	return &Recent{store: store, now: time.Now}
}

// Record validates e and adds it to the client's list.
func (r *Recent) Record(ctx context.Context, clientID string, e Entry) ([]Entry, error) {
	if err := checkClient(clientID); err != nil {
		return nil, err
	}
	e, err := normalize(e, r.now)
	if err != nil {
		return nil, err
	}
	return r.store.Add(ctx, clientID, e)
}

// List returns the client's entries, newest first.
func (r *Recent) List(ctx context.Context, clientID string) ([]Entry, error) {
	if err := checkClient(clientID); err != nil {
		return nil, err
	}
	return r.store.List(ctx, clientID)
}

// Clear empties the client's list.
func (r *Recent) Clear(ctx context.Context, clientID string) error {
	if err := checkClient(clientID); err != nil {
		return err
	}
	return r.store.Clear(ctx, clientID)
}

// Close releases the backend.
func (r *Recent) Close() error {
	return r.store.Close()
}

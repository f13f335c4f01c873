package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func entry(name, op string) Entry {
	return Entry{FileName: name, Operation: op, Size: 10, CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func names(list []Entry) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.FileName + "/" + e.Operation
	}
	return out
}

func TestPush(t *testing.T) {
	tests := []struct {
		name  string
		start []Entry
		add   Entry
		want  []string
	}{
		{
			name: "empty",
			add:  entry("a.json", "json-to-csv"),
			want: []string{"a.json/json-to-csv"},
		},
		{
			name:  "newest first",
			start: []Entry{entry("a.json", "json-to-csv")},
			add:   entry("b.json", "json-to-csv"),
			want:  []string{"b.json/json-to-csv", "a.json/json-to-csv"},
		},
		{
			name:  "same file and operation moves to front",
			start: []Entry{entry("b", "x"), entry("a", "x"), entry("c", "x")},
			add:   entry("a", "x"),
			want:  []string{"a/x", "b/x", "c/x"},
		},
		{
			name:  "same file different operation is kept",
			start: []Entry{entry("a", "x")},
			add:   entry("a", "y"),
			want:  []string{"a/y", "a/x"},
		},
		{
			name:  "oldest evicted at capacity",
			start: []Entry{entry("5", "x"), entry("4", "x"), entry("3", "x"), entry("2", "x"), entry("1", "x")},
			add:   entry("6", "x"),
			want:  []string{"6/x", "5/x", "4/x", "3/x", "2/x"},
		},
		{
			name:  "dedup at capacity keeps everything else",
			start: []Entry{entry("5", "x"), entry("4", "x"), entry("3", "x"), entry("2", "x"), entry("1", "x")},
			add:   entry("1", "x"),
			want:  []string{"1/x", "5/x", "4/x", "3/x", "2/x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := names(tt.start)
			got := Push(tt.start, tt.add, DefaultCapacity)
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("Push mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(before, names(tt.start)); diff != "" {
				t.Errorf("Push modified its input:\n%s", diff)
			}
		})
	}
}

func TestPush_NeverExceedsCapacity(t *testing.T) {
	var list []Entry
	for i := 0; i < 50; i++ {
		list = Push(list, entry(fmt.Sprintf("f%d", i%7), fmt.Sprintf("op%d", i%3)), DefaultCapacity)
		if len(list) > DefaultCapacity {
			t.Fatalf("len = %d after %d pushes", len(list), i+1)
		}
		seen := make(map[string]bool)
		for _, e := range list {
			key := e.FileName + "\x00" + e.Operation
			if seen[key] {
				t.Fatalf("duplicate %q after %d pushes", key, i+1)
			}
			seen[key] = true
		}
	}
}

func TestRecent_Validation(t *testing.T) {
	r := NewRecent(NewMemoryStore(0))
	ctx := context.Background()

	if _, err := r.Record(ctx, "", entry("a", "x")); !errors.Is(err, ErrNoClient) {
		t.Errorf("missing client error = %v", err)
	}
	if _, err := r.Record(ctx, "c1", Entry{FileName: " ", Operation: "x"}); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("blank file name error = %v", err)
	}

	now := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	r.now = func() time.Time { return now }
	list, err := r.Record(ctx, "c1", Entry{FileName: " report.pdf ", Operation: "pdf-flatten", Size: -4})
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{{FileName: "report.pdf", Operation: "pdf-flatten", Size: 0, CreatedAt: now}}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Errorf("Record mismatch (-want +got):\n%s", diff)
	}
}

// storeContract exercises the behavior every backend shares.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	list, err := s.List(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("unknown client list = %v", list)
	}

	for i := 1; i <= 7; i++ {
		if _, err := s.Add(ctx, "c1", entry(fmt.Sprintf("f%d.csv", i), "csv-to-json")); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Add(ctx, "c1", entry("f4.csv", "csv-to-json")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, "c2", entry("other.csv", "csv-to-json")); err != nil {
		t.Fatal(err)
	}

	list, err = s.List(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"f4.csv/csv-to-json", "f7.csv/csv-to-json", "f6.csv/csv-to-json", "f5.csv/csv-to-json", "f3.csv/csv-to-json"}
	if diff := cmp.Diff(want, names(list)); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
	if !list[0].CreatedAt.Equal(entry("", "").CreatedAt) || list[0].Size != 10 {
		t.Errorf("entry fields not preserved: %+v", list[0])
	}

	if err := s.Clear(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if list, _ := s.List(ctx, "c1"); len(list) != 0 {
		t.Errorf("list after Clear = %v", list)
	}
	if list, _ := s.List(ctx, "c2"); len(list) != 1 {
		t.Errorf("Clear touched another client: %v", list)
	}
}

// concurrentFirstAdds adds n distinct entries for a client with no list yet,
// all at once, and checks none of them was lost.
func concurrentFirstAdds(t *testing.T, s Store, clientID string, n int) {
	t.Helper()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Add(ctx, clientID, entry(fmt.Sprintf("f%02d.csv", i), "csv-to-json")); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Add: %v", err)
	}

	list, err := s.List(ctx, clientID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != n {
		t.Errorf("len = %d, want %d (lost updates): %v", len(list), n, names(list))
	}
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(DefaultCapacity))
}

func TestMemoryStore_ConcurrentAdds(t *testing.T) {
	s := NewMemoryStore(DefaultCapacity)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Add(ctx, "c", entry(fmt.Sprintf("f%d", i), "x"))
		}(i)
	}
	wg.Wait()

	list, _ := s.List(ctx, "c")
	if len(list) != DefaultCapacity {
		t.Errorf("len = %d, want %d", len(list), DefaultCapacity)
	}
}

func TestMemoryStore_ConcurrentFirstAdds(t *testing.T) {
	concurrentFirstAdds(t, NewMemoryStore(20), "fresh", 12)
}

func TestMemoryStore_Prune(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base }
	s.Add(ctx, "old", entry("a", "x"))
	s.now = func() time.Time { return base.Add(48 * time.Hour) }
	s.Add(ctx, "new", entry("a", "x"))

	n, err := s.Prune(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if list, _ := s.List(ctx, "old"); len(list) != 0 {
		t.Error("old list survived")
	}
	if list, _ := s.List(ctx, "new"); len(list) != 1 {
		t.Error("new list was pruned")
	}
}

func TestSQLiteStore_ConcurrentFirstAdds(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "recent.db"), 20)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	concurrentFirstAdds(t, s, "fresh", 12)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "recent.db")
	s, err := OpenSQLite(path, DefaultCapacity)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	storeContract(t, s)

	n, err := s.Prune(context.Background(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1 (client c2)", n)
	}

	// Reopening sees the same data.
	s2, err := OpenSQLite(path, DefaultCapacity)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if _, err := s2.Add(context.Background(), "c3", entry("x", "y")); err != nil {
		t.Fatal(err)
	}
	if list, _ := s.List(context.Background(), "c3"); len(list) != 1 {
		t.Errorf("second handle write not visible: %v", list)
	}
}

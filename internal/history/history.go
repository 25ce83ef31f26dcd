// Package history keeps an in-memory log of answered questions and
// their outcomes. Entries do not survive a restart.
package history

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one answered question with its generated SQL and outcome.
type Entry struct {
	ID              string    `json:"id"`
	Question        string    `json:"question"`
	UserID          string    `json:"user_id,omitempty"`
	SQL             string    `json:"sql_query"`
	RowCount        int       `json:"row_count"`
	ExecutionTimeMS float64   `json:"execution_time_ms"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Store holds entries in memory, newest retrievable via List.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewStore creates an empty history store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]Entry),
	}
}

// Record saves an entry, assigning it an ID and timestamp, and returns
// the stored copy.
func (s *Store) Record(entry Entry) Entry {
	entry.ID = uuid.New().String()
	entry.Timestamp = time.Now().UTC()

	s.mu.Lock()
	s.entries[entry.ID] = entry
	s.mu.Unlock()

	return entry
}

// Get returns the entry with the given ID.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]

	return entry, ok
}

// List returns all entries, newest first.
func (s *Store) List() []Entry {
	s.mu.RLock()

	out := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}

	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

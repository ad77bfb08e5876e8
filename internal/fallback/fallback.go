package fallback

import (
	"sync"
	"time"

	"github.com/sheetbridge/sheetbridge/internal/sheets"
)

// Entry is the last rows ever fetched successfully for one table.
type Entry struct {
	Table     string
	Rows      []sheets.Row
	FetchedAt time.Time
}

// Store keeps the last-known-good rows per table. Entries never expire and
// survive cache invalidation; they are overwritten on every successful fetch
// and served only when a fresh fetch fails because the remote quota is
// exhausted.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	now  func() time.Time // injectable for deterministic tests
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		data: make(map[string]*Entry),
		now:  time.Now,
	}
}

// Put unconditionally overwrites the entry for table.
// Callers must not modify rows after calling Put.
func (s *Store) Put(table string, rows []sheets.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[table] = &Entry{Table: table, Rows: rows, FetchedAt: s.now()}
}

// Get returns the entry for table, however old it is.
func (s *Store) Get(table string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[table]
	return e, ok
}

// Clear drops every entry. Administrative reset only; nothing calls this
// automatically.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*Entry)
}

// Len returns the number of tables with a fallback entry.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

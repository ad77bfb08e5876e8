package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sheetbridge/sheetbridge/internal/sheets"
)

// Entry is the rows most recently fetched for one table, plus the fetch time.
type Entry struct {
	Table     string
	Rows      []sheets.Row
	FetchedAt time.Time
}

// Cache is a thread-safe in-memory TTL cache keyed by worksheet title.
// Entries past their TTL are treated as absent on Get; a background goroutine
// (Run) purges them so memory stays bounded by the number of distinct tables
// touched.
//
// Invalidation is always global: after any successful write, row indices may
// have shifted anywhere in the spreadsheet, so per-table invalidation cannot
// be trusted. InvalidateAll also bumps a generation counter that lets callers
// discard fetch results that began before the invalidation.
type Cache struct {
	mu   sync.RWMutex
	data map[string]*Entry
	gen  uint64
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns the entry for table if one exists and is still fresh.
// An expired entry counts as absent.
func (c *Cache) Get(table string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.data[table]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.FetchedAt) >= c.ttl {
		return nil, false
	}
	return e, true
}

// Put stores rows for table, replacing any prior entry.
// Callers must not modify rows after calling Put.
func (c *Cache) Put(table string, rows []sheets.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[table] = &Entry{Table: table, Rows: rows, FetchedAt: c.now()}
}

// PutIfCurrent stores rows only if no invalidation has happened since gen was
// read. It reports whether the entry was stored. Fetches that straddle an
// invalidation must not repopulate the cache with pre-write rows.
func (c *Cache) PutIfCurrent(table string, rows []sheets.Row, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.data[table] = &Entry{Table: table, Rows: rows, FetchedAt: c.now()}
	return true
}

// Generation returns the current invalidation generation.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// InvalidateAll clears every entry regardless of freshness and bumps the
// generation counter.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*Entry)
	c.gen++
}

// Len returns the number of entries currently held, including expired ones
// not yet purged.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Evict removes entries whose FetchedAt is older than now minus TTL.
// It returns the number of entries removed.
func (c *Cache) Evict(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for table, e := range c.data {
		if now.Sub(e.FetchedAt) >= c.ttl {
			delete(c.data, table)
			removed++
		}
	}
	return removed
}

// Run starts the background purge loop. It ticks at half the TTL interval
// (minimum 1 second); Get already ignores expired entries, so the loop is
// purely memory hygiene. Run blocks until ctx is cancelled.
func (c *Cache) Run(ctx context.Context) {
	interval := c.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := c.Evict(now); n > 0 {
				slog.Debug("cache: purged expired entries", "count", n)
			}
		}
	}
}

package cache

import (
	"testing"
	"time"

	"github.com/sheetbridge/sheetbridge/internal/sheets"
)

func rows(cells ...string) []sheets.Row {
	out := make([]sheets.Row, 0, len(cells))
	for _, c := range cells {
		out = append(out, sheets.Row{c})
	}
	return out
}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPutAndGet(t *testing.T) {
	c := New(time.Minute)
	c.Put("Assets", rows("a", "b"))

	e, ok := c.Get("Assets")
	if !ok {
		t.Fatal("Get: expected entry, got none")
	}
	if len(e.Rows) != 2 || e.Rows[0][0] != "a" {
		t.Errorf("rows: got %v", e.Rows)
	}
	if e.Table != "Assets" {
		t.Errorf("table: got %q, want Assets", e.Table)
	}
}

func TestGet_Missing(t *testing.T) {
	c := New(time.Minute)
	if _, ok := c.Get("unknown"); ok {
		t.Fatal("Get on empty cache: expected false, got true")
	}
}

func TestGet_ExpiredEntryIsAbsent(t *testing.T) {
	base := time.Now()
	c := New(time.Minute)

	c.now = fixedClock(base)
	c.Put("Assets", rows("a"))

	// Just before the TTL boundary the entry is still fresh.
	c.now = fixedClock(base.Add(time.Minute - time.Millisecond))
	if _, ok := c.Get("Assets"); !ok {
		t.Fatal("entry expired before its TTL")
	}

	// At the boundary it counts as absent.
	c.now = fixedClock(base.Add(time.Minute))
	if _, ok := c.Get("Assets"); ok {
		t.Fatal("entry still fresh at TTL boundary")
	}
}

func TestPut_Overwrites(t *testing.T) {
	c := New(time.Minute)
	c.Put("Assets", rows("old"))
	c.Put("Assets", rows("new"))

	e, ok := c.Get("Assets")
	if !ok {
		t.Fatal("Get: expected entry after two Puts")
	}
	if e.Rows[0][0] != "new" {
		t.Errorf("rows: got %q, want new", e.Rows[0][0])
	}
}

func TestInvalidateAll_ClearsEverythingAndBumpsGeneration(t *testing.T) {
	c := New(time.Minute)
	c.Put("Assets", rows("a"))
	c.Put("Users", rows("u"))

	gen := c.Generation()
	c.InvalidateAll()

	if _, ok := c.Get("Assets"); ok {
		t.Error("Assets still cached after InvalidateAll")
	}
	if _, ok := c.Get("Users"); ok {
		t.Error("Users still cached after InvalidateAll")
	}
	if c.Generation() != gen+1 {
		t.Errorf("generation: got %d, want %d", c.Generation(), gen+1)
	}
}

func TestPutIfCurrent_RejectsStaleGeneration(t *testing.T) {
	c := New(time.Minute)

	gen := c.Generation()
	c.InvalidateAll()

	if c.PutIfCurrent("Assets", rows("pre-write"), gen) {
		t.Fatal("PutIfCurrent accepted a stale generation")
	}
	if _, ok := c.Get("Assets"); ok {
		t.Fatal("stale fetch repopulated the cache")
	}
}

func TestPutIfCurrent_AcceptsCurrentGeneration(t *testing.T) {
	c := New(time.Minute)

	if !c.PutIfCurrent("Assets", rows("a"), c.Generation()) {
		t.Fatal("PutIfCurrent rejected the current generation")
	}
	if _, ok := c.Get("Assets"); !ok {
		t.Fatal("entry missing after PutIfCurrent")
	}
}

func TestEvict_RemovesOnlyExpired(t *testing.T) {
	base := time.Now()
	c := New(time.Minute)

	c.now = fixedClock(base.Add(-2 * time.Minute))
	c.Put("old", rows("o"))

	c.now = fixedClock(base)
	c.Put("new", rows("n"))

	if removed := c.Evict(base); removed != 1 {
		t.Fatalf("Evict: removed %d, want 1", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len: got %d, want 1", c.Len())
	}
	if _, ok := c.Get("new"); !ok {
		t.Error("fresh entry was evicted")
	}
}

func TestLen_CountsAllEntries(t *testing.T) {
	c := New(time.Minute)
	c.Put("a", rows("1"))
	c.Put("b", rows("2"))
	if c.Len() != 2 {
		t.Errorf("Len: got %d, want 2", c.Len())
	}
}

package fallback

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

func TestPutAndGet(t *testing.T) {
	s := New()
	s.Put("Assets", rows("a", "b"))

	e, ok := s.Get("Assets")
	if !ok {
		t.Fatal("Get: expected entry, got none")
	}
	if len(e.Rows) != 2 {
		t.Errorf("rows: got %d, want 2", len(e.Rows))
	}
}

func TestGet_Missing(t *testing.T) {
	s := New()
	if _, ok := s.Get("unknown"); ok {
		t.Fatal("Get on empty store: expected false, got true")
	}
}

func TestPut_Overwrites(t *testing.T) {
	s := New()
	s.Put("Assets", rows("old"))
	s.Put("Assets", rows("new"))

	e, _ := s.Get("Assets")
	if e.Rows[0][0] != "new" {
		t.Errorf("rows: got %q, want new", e.Rows[0][0])
	}
}

func TestEntriesNeverExpire(t *testing.T) {
	s := New()
	s.now = func() time.Time { return time.Now().Add(-365 * 24 * time.Hour) }
	s.Put("Assets", rows("ancient"))
	s.now = time.Now

	e, ok := s.Get("Assets")
	if !ok {
		t.Fatal("year-old entry should still be served")
	}
	if e.Rows[0][0] != "ancient" {
		t.Errorf("rows: got %q, want ancient", e.Rows[0][0])
	}
}

func TestClear(t *testing.T) {
	s := New()
	s.Put("a", rows("1"))
	s.Put("b", rows("2"))

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len after Clear: got %d, want 0", s.Len())
	}
}

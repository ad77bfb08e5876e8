package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/sheetbridge/sheetbridge/internal/cache"
	"github.com/sheetbridge/sheetbridge/internal/fallback"
	"github.com/sheetbridge/sheetbridge/internal/metrics"
	"github.com/sheetbridge/sheetbridge/internal/ratelimit"
	"github.com/sheetbridge/sheetbridge/internal/sheets"
)

// RemoteStore is the narrow surface the mediator needs from the spreadsheet
// client. *sheets.Client satisfies it; tests substitute a scripted fake.
type RemoteStore interface {
	FetchRows(ctx context.Context, table string) ([]sheets.Row, error)
	AppendRow(ctx context.Context, table string, row sheets.Row) error
	UpdateRow(ctx context.Context, table string, index int, row sheets.Row) error
	DeleteRow(ctx context.Context, table string, index int) error
}

// Publisher receives change events after successful mutations and cache
// clears. The websocket hub implements it; a nil Publisher disables events.
type Publisher interface {
	Publish(event, table string)
}

// Freshness says whether returned rows came from a live fetch or the stale
// fallback store.
type Freshness string

const (
	Fresh Freshness = "fresh"
	Stale Freshness = "stale"
)

// Op is a mutation kind.
type Op string

const (
	OpAppend Op = "append"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Mutation is one write against a table. RowIndex is a 0-based data-row index
// (the worksheet header row is not addressable) and is ignored for appends.
type Mutation struct {
	Op       Op
	Table    string
	RowIndex int
	Row      sheets.Row
}

// ErrDataUnavailable is returned by Read when the remote quota is exhausted
// and no fallback rows have ever been recorded for the table.
var ErrDataUnavailable = errors.New("access: data unavailable")

// ErrRowNotFound is returned by FindRow when no data row matches.
var ErrRowNotFound = errors.New("access: row not found")

// WriteError wraps any write-path failure with the mutation that caused it.
type WriteError struct {
	Mutation Mutation
	Cause    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("access: %s on table %q failed: %v",
		e.Mutation.Op, e.Mutation.Table, e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }

// Mediator orchestrates the TTL cache, the rate limiter, the remote client
// and the stale fallback store behind Read and Write. All shared mutable
// state lives in the injected collaborators; the Mediator itself holds no
// hidden globals and is safe for concurrent use.
type Mediator struct {
	remote   RemoteStore
	limiter  *ratelimit.Limiter
	cache    *cache.Cache
	fallback *fallback.Store
	metrics  *metrics.Registry
	events   Publisher

	sf singleflight.Group
}

// New wires a Mediator. events may be nil; everything else is required.
func New(
	remote RemoteStore,
	limiter *ratelimit.Limiter,
	c *cache.Cache,
	fb *fallback.Store,
	m *metrics.Registry,
	events Publisher,
) *Mediator {
	return &Mediator{
		remote:   remote,
		limiter:  limiter,
		cache:    c,
		fallback: fb,
		metrics:  m,
		events:   events,
	}
}

type readResult struct {
	rows      []sheets.Row
	freshness Freshness
}

// Read returns the rows for table and whether they are fresh or stale.
//
// A fresh cache entry is returned without touching the rate limiter or the
// network. On a miss the fetch is rate-limited; a successful fetch refreshes
// both the cache and the fallback store. If the remote reports quota
// exhaustion, the last-known-good rows are served as stale; with no fallback
// available the read fails with ErrDataUnavailable. Every other failure
// (auth, not-found, transport) surfaces unchanged: only quota exhaustion is
// expected to self-resolve, so only it is masked.
func (m *Mediator) Read(ctx context.Context, table string) ([]sheets.Row, Freshness, error) {
	if e, ok := m.cache.Get(table); ok {
		m.metrics.CacheHit()
		return e.Rows, Fresh, nil
	}
	m.metrics.CacheMiss()

	// Concurrent misses for the same table share one remote fetch. The key is
	// scoped by the invalidation generation: a read issued after a write sees
	// the bumped generation and starts a new fetch instead of joining an
	// in-flight pre-write one, whose rows it must not observe as fresh.
	gen := m.cache.Generation()
	v, err, _ := m.sf.Do(fmt.Sprintf("%s@%d", table, gen), func() (any, error) {
		return m.fetch(ctx, table, gen)
	})
	if err != nil {
		return nil, "", err
	}
	res := v.(readResult)
	return res.rows, res.freshness, nil
}

// fetch performs the rate-limited remote read and applies the fallback
// policy. gen is the invalidation generation observed before the fetch began;
// a write that lands while the fetch is in flight must not be papered over by
// caching the pre-write rows afterwards.
func (m *Mediator) fetch(ctx context.Context, table string, gen uint64) (readResult, error) {
	if err := m.limiter.Acquire(ctx); err != nil {
		return readResult{}, err
	}

	rows, err := m.remote.FetchRows(ctx, table)
	if err == nil {
		m.metrics.RemoteRead()
		m.cache.PutIfCurrent(table, rows, gen)
		m.fallback.Put(table, rows)
		return readResult{rows: rows, freshness: Fresh}, nil
	}

	if !sheets.IsRateLimited(err) {
		return readResult{}, err
	}

	m.metrics.RateLimited()
	if e, ok := m.fallback.Get(table); ok {
		m.metrics.StaleServe()
		slog.Warn("access: remote quota exhausted, serving stale rows",
			"table", table, "fetched_at", e.FetchedAt, "err", err)
		return readResult{rows: e.Rows, freshness: Stale}, nil
	}
	return readResult{}, fmt.Errorf("%w: table %q: %v", ErrDataUnavailable, table, err)
}

// Write applies one mutation to the remote store.
//
// On success the whole cache is invalidated: a mutation can shift row indices
// anywhere in the spreadsheet, so per-table invalidation cannot be trusted.
// The fallback store is left untouched; the next successful read refreshes
// it. On failure nothing remote changed, so the cache is left
// as is and the error is returned as a *WriteError wrapping the cause.
func (m *Mediator) Write(ctx context.Context, mut Mutation) error {
	switch mut.Op {
	case OpAppend, OpUpdate, OpDelete:
	default:
		return &WriteError{Mutation: mut, Cause: fmt.Errorf("unknown op %q", mut.Op)}
	}

	if err := m.limiter.Acquire(ctx); err != nil {
		return &WriteError{Mutation: mut, Cause: err}
	}

	var err error
	switch mut.Op {
	case OpAppend:
		err = m.remote.AppendRow(ctx, mut.Table, mut.Row)
	case OpUpdate:
		err = m.remote.UpdateRow(ctx, mut.Table, mut.RowIndex, mut.Row)
	case OpDelete:
		err = m.remote.DeleteRow(ctx, mut.Table, mut.RowIndex)
	}
	if err != nil {
		return &WriteError{Mutation: mut, Cause: err}
	}

	m.metrics.RemoteWrite()
	m.cache.InvalidateAll()
	m.metrics.Invalidation()
	m.publish("write", mut.Table)
	return nil
}

// ClearCache drops every cached entry so subsequent reads refetch.
// The fallback store is untouched.
func (m *Mediator) ClearCache() {
	m.cache.InvalidateAll()
	m.metrics.Invalidation()
	m.publish("cache_cleared", "")
}

// FindRow locates the first data row whose cell in the named header column
// equals value. The returned index is 0-based over data rows, suitable for
// Mutation.RowIndex. The lookup goes through the normal read path and may be
// answered from cache or, under quota exhaustion, from the fallback store.
func (m *Mediator) FindRow(ctx context.Context, table, column, value string) (int, Freshness, error) {
	rows, fr, err := m.Read(ctx, table)
	if err != nil {
		return 0, "", err
	}
	if len(rows) == 0 {
		return 0, fr, fmt.Errorf("%w: table %q is empty", ErrRowNotFound, table)
	}

	col := -1
	for i, name := range rows[0] {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return 0, fr, fmt.Errorf("%w: table %q has no column %q", ErrRowNotFound, table, column)
	}

	for i, row := range rows[1:] {
		if col < len(row) && row[col] == value {
			return i, fr, nil
		}
	}
	return 0, fr, fmt.Errorf("%w: table %q: no row with %s=%q", ErrRowNotFound, table, column, value)
}

// Stats reports current store sizes for the health endpoint.
type Stats struct {
	CachedTables   int
	FallbackTables int
}

// Stats returns the number of tables currently held by the cache and the
// fallback store.
func (m *Mediator) Stats() Stats {
	return Stats{
		CachedTables:   m.cache.Len(),
		FallbackTables: m.fallback.Len(),
	}
}

func (m *Mediator) publish(event, table string) {
	if m.events == nil {
		return
	}
	m.events.Publish(event, table)
}

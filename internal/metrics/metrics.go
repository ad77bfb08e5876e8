package metrics

import (
	"io"
	"net/http"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Registry counts data-access events and renders them in the Prometheus text
// exposition format. It is deliberately small: a fixed set of process-wide
// counters with no label cardinality to manage.
type Registry struct {
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	remoteReads   atomic.Int64
	remoteWrites  atomic.Int64
	staleServes   atomic.Int64
	rateLimited   atomic.Int64
	invalidations atomic.Int64
}

// New creates an empty Registry.
func New() *Registry { return &Registry{} }

// CacheHit records a read served from the TTL cache.
func (r *Registry) CacheHit() { r.cacheHits.Add(1) }

// CacheMiss records a read that had to go remote.
func (r *Registry) CacheMiss() { r.cacheMisses.Add(1) }

// RemoteRead records a successful remote fetch.
func (r *Registry) RemoteRead() { r.remoteReads.Add(1) }

// RemoteWrite records a successful remote mutation.
func (r *Registry) RemoteWrite() { r.remoteWrites.Add(1) }

// StaleServe records a read answered from the fallback store.
func (r *Registry) StaleServe() { r.staleServes.Add(1) }

// RateLimited records a remote call rejected for quota exhaustion.
func (r *Registry) RateLimited() { r.rateLimited.Add(1) }

// Invalidation records a global cache invalidation.
func (r *Registry) Invalidation() { r.invalidations.Add(1) }

// Gather returns the current counter values as Prometheus metric families.
func (r *Registry) Gather() []*dto.MetricFamily {
	counter := func(name, help string, v int64) *dto.MetricFamily {
		return &dto.MetricFamily{
			Name: proto.String(name),
			Help: proto.String(help),
			Type: dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{{
				Counter: &dto.Counter{Value: proto.Float64(float64(v))},
			}},
		}
	}

	return []*dto.MetricFamily{
		counter("sheetbridge_cache_hits_total",
			"Reads served from the TTL cache.", r.cacheHits.Load()),
		counter("sheetbridge_cache_misses_total",
			"Reads that required a remote fetch.", r.cacheMisses.Load()),
		counter("sheetbridge_remote_reads_total",
			"Successful fetches from the remote store.", r.remoteReads.Load()),
		counter("sheetbridge_remote_writes_total",
			"Successful mutations against the remote store.", r.remoteWrites.Load()),
		counter("sheetbridge_stale_serves_total",
			"Reads answered from the stale fallback store.", r.staleServes.Load()),
		counter("sheetbridge_rate_limited_total",
			"Remote calls rejected by the remote quota.", r.rateLimited.Load()),
		counter("sheetbridge_cache_invalidations_total",
			"Global cache invalidations.", r.invalidations.Load()),
	}
}

// WriteText renders every family in the text exposition format.
func (r *Registry) WriteText(w io.Writer) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range r.Gather() {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the registry at GET /metrics.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
		_ = r.WriteText(w)
	})
}

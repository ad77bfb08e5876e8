// Package metrics exposes data-access counters (cache hits, remote calls,
// stale serves, quota rejections) in the Prometheus text exposition format.
package metrics

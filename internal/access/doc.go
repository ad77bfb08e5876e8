// Package access is the data access mediator: the single entry point through
// which collaborators read and mutate spreadsheet-backed tables.
//
// It turns unbounded application calls into a bounded, correctly-ordered
// stream of remote requests by composing a TTL cache, a global rate limiter,
// the remote client and a stale fallback store. Quota exhaustion on reads is
// the one failure mode masked locally (by serving last-known-good rows as
// stale); every other failure surfaces to the caller unchanged.
package access

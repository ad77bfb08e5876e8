// Package fallback is the stale fallback store: a non-expiring map of the
// best rows ever seen per table, used strictly as a last resort when the
// remote quota is exhausted.
package fallback

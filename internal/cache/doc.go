// Package cache is the TTL cache for fetched rows. Entries expire after a
// configured lifetime and the whole cache is invalidated after any successful
// write. It is pure in-memory bookkeeping with no error conditions.
package cache

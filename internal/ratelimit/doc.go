// Package ratelimit serializes outbound calls to the remote spreadsheet API
// with a minimum inter-call spacing, keeping the aggregate request rate under
// the remote quota.
package ratelimit

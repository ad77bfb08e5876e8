// Package sheets is the remote store client: a thin HTTP client for the
// Sheets v4 values API, scoped to a single spreadsheet.
//
// Exposed operations map one-to-one to the mediation layer's needs:
// FetchRows, AppendRow, UpdateRow, DeleteRow. Every failure is classified
// into an *APIError kind (rate_limited, auth, not_found, transient) so the
// mediator can decide which failures are recoverable.
//
// Authentication (bearer token or API key, resolved from the environment)
// is handled by an authRoundTripper on the shared *http.Client.
package sheets

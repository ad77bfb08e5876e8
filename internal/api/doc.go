// Package api implements the HTTP REST API for sheetbridge.
//
// New(mediator, tables) returns a handler that serves:
//
//	GET    /api/v1/health               - store sizes and table count
//	GET    /api/v1/tables               - configured logical tables
//	GET    /api/v1/tables/{name}/rows   - read; body carries freshness
//	GET    /api/v1/tables/{name}/find   - locate a row by column value
//	POST   /api/v1/tables/{name}/rows   - append one row
//	PUT    /api/v1/tables/{name}/rows/{index} - update one row
//	DELETE /api/v1/tables/{name}/rows/{index} - delete one row
//	POST   /api/v1/cache/clear          - drop cached rows, keep fallback
//
// All endpoints respond with Content-Type: application/json and return 405
// for unsupported methods. Reads served from the stale fallback are 200 with
// "freshness":"stale"; quota exhaustion with no fallback is 503 with a
// Retry-After header. No external HTTP framework is used.
package api

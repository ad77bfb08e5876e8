package api

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status         string `json:"status"`
	Tables         int    `json:"tables"`
	CachedTables   int    `json:"cached_tables"`
	FallbackTables int    `json:"fallback_tables"`
}

// TableInfo is one entry in GET /api/v1/tables.
type TableInfo struct {
	Name      string `json:"name"`
	Worksheet string `json:"worksheet"`
}

// TableResponse is the payload for GET /api/v1/tables/{name}/rows.
// Columns is the worksheet header row; Rows holds the data rows in sheet
// order, each row's index usable as the row id for update and delete.
type TableResponse struct {
	Table     string     `json:"table"`
	Worksheet string     `json:"worksheet"`
	Freshness string     `json:"freshness"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	RowCount  int        `json:"row_count"`
}

// FindResponse is the payload for GET /api/v1/tables/{name}/find.
type FindResponse struct {
	Table     string `json:"table"`
	Column    string `json:"column"`
	Value     string `json:"value"`
	RowIndex  int    `json:"row_index"`
	Freshness string `json:"freshness"`
}

// WriteResponse acknowledges a successful mutation.
type WriteResponse struct {
	OK    bool   `json:"ok"`
	Op    string `json:"op"`
	Table string `json:"table"`
}

// okResponse acknowledges an administrative action.
type okResponse struct {
	OK bool `json:"ok"`
}

// rowRequest is the body for POST and PUT row mutations.
type rowRequest struct {
	Row []string `json:"row"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

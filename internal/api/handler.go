package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sheetbridge/sheetbridge/internal/access"
	"github.com/sheetbridge/sheetbridge/internal/config"
	"github.com/sheetbridge/sheetbridge/internal/sheets"
)

// Handler is the HTTP handler for all /api/v1/* endpoints. It resolves
// logical table names to worksheet titles and forwards reads and writes to
// the mediator; it never talks to the remote store directly.
type Handler struct {
	med    *access.Mediator
	tables config.DataConfig
	mux    *http.ServeMux
}

// New creates a Handler wired to the given mediator and registers all routes.
func New(med *access.Mediator, tables config.DataConfig) *Handler {
	h := &Handler{med: med, tables: tables, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/tables", h.listTables)
	h.mux.HandleFunc("/api/v1/tables/", h.tableSubtree) // subtree, extracts {name}
	h.mux.HandleFunc("/api/v1/cache/clear", h.clearCache)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: store sizes and table count.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats := h.med.Stats()
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		Tables:         len(h.tables.Tables),
		CachedTables:   stats.CachedTables,
		FallbackTables: stats.FallbackTables,
	})
}

// listTables returns GET /api/v1/tables: the configured logical tables.
func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	names := h.tables.TableNames()
	out := make([]TableInfo, 0, len(names))
	for _, n := range names {
		title, _ := h.tables.Worksheet(n)
		out = append(out, TableInfo{Name: n, Worksheet: title})
	}
	jsonResp(w, http.StatusOK, out)
}

// tableSubtree dispatches /api/v1/tables/{name}/rows[/{index}] and
// /api/v1/tables/{name}/find.
func (h *Handler) tableSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/tables/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		h.listTables(w, r)
		return
	}

	name := parts[0]
	worksheet, ok := h.tables.Worksheet(name)
	if !ok {
		jsonErr(w, http.StatusNotFound, "unknown table")
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "rows":
		switch r.Method {
		case http.MethodGet:
			h.readRows(w, r, name, worksheet)
		case http.MethodPost:
			h.appendRow(w, r, name, worksheet)
		default:
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		}

	case len(parts) == 3 && parts[1] == "rows":
		idx, err := strconv.Atoi(parts[2])
		if err != nil || idx < 0 {
			jsonErr(w, http.StatusBadRequest, "invalid row index")
			return
		}
		switch r.Method {
		case http.MethodPut:
			h.updateRow(w, r, name, worksheet, idx)
		case http.MethodDelete:
			h.deleteRow(w, r, name, worksheet, idx)
		default:
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		}

	case len(parts) == 2 && parts[1] == "find":
		if r.Method != http.MethodGet {
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.findRow(w, r, name, worksheet)

	default:
		jsonErr(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) readRows(w http.ResponseWriter, r *http.Request, name, worksheet string) {
	rows, fr, err := h.med.Read(r.Context(), worksheet)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := TableResponse{
		Table:     name,
		Worksheet: worksheet,
		Freshness: string(fr),
		Columns:   []string{},
		Rows:      [][]string{},
	}
	if len(rows) > 0 {
		resp.Columns = rows[0]
		resp.Rows = make([][]string, 0, len(rows)-1)
		for _, row := range rows[1:] {
			resp.Rows = append(resp.Rows, row)
		}
	}
	resp.RowCount = len(resp.Rows)
	jsonResp(w, http.StatusOK, resp)
}

func (h *Handler) findRow(w http.ResponseWriter, r *http.Request, name, worksheet string) {
	column := r.URL.Query().Get("column")
	value := r.URL.Query().Get("value")
	if column == "" {
		jsonErr(w, http.StatusBadRequest, "column query parameter is required")
		return
	}

	idx, fr, err := h.med.FindRow(r.Context(), worksheet, column, value)
	if err != nil {
		if errors.Is(err, access.ErrRowNotFound) {
			jsonErr(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, err)
		return
	}

	jsonResp(w, http.StatusOK, FindResponse{
		Table:     name,
		Column:    column,
		Value:     value,
		RowIndex:  idx,
		Freshness: string(fr),
	})
}

func (h *Handler) appendRow(w http.ResponseWriter, r *http.Request, name, worksheet string) {
	row, ok := decodeRow(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, name, access.Mutation{
		Op:    access.OpAppend,
		Table: worksheet,
		Row:   row,
	})
}

func (h *Handler) updateRow(w http.ResponseWriter, r *http.Request, name, worksheet string, idx int) {
	row, ok := decodeRow(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, name, access.Mutation{
		Op:       access.OpUpdate,
		Table:    worksheet,
		RowIndex: idx,
		Row:      row,
	})
}

func (h *Handler) deleteRow(w http.ResponseWriter, r *http.Request, name, worksheet string, idx int) {
	h.mutate(w, r, name, access.Mutation{
		Op:       access.OpDelete,
		Table:    worksheet,
		RowIndex: idx,
	})
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, name string, mut access.Mutation) {
	if err := h.med.Write(r.Context(), mut); err != nil {
		h.writeError(w, err)
		return
	}
	jsonResp(w, http.StatusOK, WriteResponse{OK: true, Op: string(mut.Op), Table: name})
}

// clearCache handles POST /api/v1/cache/clear, forcing subsequent reads to
// refetch. The fallback store is untouched.
func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.med.ClearCache()
	jsonResp(w, http.StatusOK, okResponse{OK: true})
}

// --- helpers ----------------------------------------------------------------

func decodeRow(w http.ResponseWriter, r *http.Request) (sheets.Row, bool) {
	var req rowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if len(req.Row) == 0 {
		jsonErr(w, http.StatusBadRequest, "row must not be empty")
		return nil, false
	}
	return sheets.Row(req.Row), true
}

// writeError maps mediator and client errors to HTTP statuses. Stale reads
// are not errors; they arrive here only when no fallback existed either.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, access.ErrDataUnavailable) || sheets.IsRateLimited(err):
		// Quota exhaustion clears within the remote's per-minute window.
		w.Header().Set("Retry-After", "60")
		jsonErr(w, http.StatusServiceUnavailable, err.Error())
	case sheets.IsNotFound(err):
		jsonErr(w, http.StatusNotFound, err.Error())
	case sheets.IsAuth(err):
		jsonErr(w, http.StatusBadGateway, "upstream authorization failed: "+err.Error())
	default:
		jsonErr(w, http.StatusBadGateway, err.Error())
	}
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

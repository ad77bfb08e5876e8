package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/sheetbridge/sheetbridge/internal/config"
)

const defaultBaseURL = "https://sheets.googleapis.com"

// Row is one ordered record of cell values. No schema is enforced here;
// collaborators that need column names treat a worksheet's first row as the
// header.
type Row []string

// Client performs reads and mutations against one spreadsheet through the
// Sheets v4 values API. It is safe for concurrent use; rate limiting is the
// mediator's job, not the client's.
type Client struct {
	baseURL       string
	spreadsheetID string
	http          *http.Client

	mu       sync.Mutex
	sheetIDs map[string]int64 // worksheet title → numeric sheet id, memoized
}

// New builds a Client from the sheets section of the config.
// The HTTP client is constructed once and reused across calls.
func New(cfg config.SheetsConfig) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		baseURL:       strings.TrimRight(base, "/"),
		spreadsheetID: cfg.SpreadsheetID,
		http: &http.Client{
			Transport: &authRoundTripper{base: http.DefaultTransport, auth: cfg.Auth},
			Timeout:   cfg.Timeout,
		},
		sheetIDs: make(map[string]int64),
	}, nil
}

// authRoundTripper injects credentials into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.SheetsAuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "apikey":
		req = req.Clone(req.Context())
		q := req.URL.Query()
		q.Set("key", t.auth.Key())
		req.URL.RawQuery = q.Encode()
	}
	return t.base.RoundTrip(req)
}

// valueRange mirrors the Sheets API ValueRange body.
type valueRange struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension,omitempty"`
	Values         [][]string `json:"values,omitempty"`
}

// FetchRows returns every row of the worksheet, header row included, in
// sheet order.
func (c *Client) FetchRows(ctx context.Context, table string) ([]Row, error) {
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?majorDimension=ROWS",
		c.baseURL, c.spreadsheetID, url.PathEscape(table))

	var vr valueRange
	if err := c.do(ctx, http.MethodGet, u, nil, &vr); err != nil {
		return nil, err
	}

	rows := make([]Row, len(vr.Values))
	for i, v := range vr.Values {
		rows[i] = Row(v)
	}
	return rows, nil
}

// AppendRow adds one row after the last non-empty row of the worksheet.
func (c *Client) AppendRow(ctx context.Context, table string, row Row) error {
	if len(row) == 0 {
		return fmt.Errorf("sheets: append to %q: empty row", table)
	}
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		c.baseURL, c.spreadsheetID, url.PathEscape(table))

	body := valueRange{Values: [][]string{row}}
	return c.do(ctx, http.MethodPost, u, body, nil)
}

// UpdateRow overwrites one data row in place. index is 0-based over data
// rows; the worksheet stores a header in row 1, so data row i lives at sheet
// row i+2.
func (c *Client) UpdateRow(ctx context.Context, table string, index int, row Row) error {
	if index < 0 {
		return fmt.Errorf("sheets: update in %q: negative row index %d", table, index)
	}
	if len(row) == 0 {
		return fmt.Errorf("sheets: update in %q: empty row", table)
	}

	rowNum := index + 2
	rng := fmt.Sprintf("%s!A%d:%s%d", table, rowNum, columnLetter(len(row)), rowNum)
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?valueInputOption=RAW",
		c.baseURL, c.spreadsheetID, url.PathEscape(rng))

	body := valueRange{Values: [][]string{row}}
	return c.do(ctx, http.MethodPut, u, body, nil)
}

// batchUpdateRequest is the minimal subset of the batchUpdate body needed for
// row deletion.
type batchUpdateRequest struct {
	Requests []updateRequest `json:"requests"`
}

type updateRequest struct {
	DeleteDimension *deleteDimension `json:"deleteDimension,omitempty"`
}

type deleteDimension struct {
	Range dimensionRange `json:"range"`
}

type dimensionRange struct {
	SheetID    int64  `json:"sheetId"`
	Dimension  string `json:"dimension"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
}

// DeleteRow removes one data row. Deletion addresses worksheets by numeric id
// rather than title, so the id is looked up (and memoized) first.
func (c *Client) DeleteRow(ctx context.Context, table string, index int) error {
	if index < 0 {
		return fmt.Errorf("sheets: delete in %q: negative row index %d", table, index)
	}

	gid, err := c.sheetID(ctx, table)
	if err != nil {
		return err
	}

	// Absolute 0-based sheet row: +1 for the header row.
	body := batchUpdateRequest{Requests: []updateRequest{{
		DeleteDimension: &deleteDimension{Range: dimensionRange{
			SheetID:    gid,
			Dimension:  "ROWS",
			StartIndex: index + 1,
			EndIndex:   index + 2,
		}},
	}}}

	u := fmt.Sprintf("%s/v4/spreadsheets/%s:batchUpdate", c.baseURL, c.spreadsheetID)
	return c.do(ctx, http.MethodPost, u, body, nil)
}

// sheetID resolves a worksheet title to its numeric sheet id, fetching the
// spreadsheet's sheet list on first use.
func (c *Client) sheetID(ctx context.Context, table string) (int64, error) {
	c.mu.Lock()
	gid, ok := c.sheetIDs[table]
	c.mu.Unlock()
	if ok {
		return gid, nil
	}

	u := fmt.Sprintf("%s/v4/spreadsheets/%s?fields=sheets.properties",
		c.baseURL, c.spreadsheetID)

	var meta struct {
		Sheets []struct {
			Properties struct {
				SheetID int64  `json:"sheetId"`
				Title   string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, &meta); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range meta.Sheets {
		c.sheetIDs[s.Properties.Title] = s.Properties.SheetID
	}
	gid, ok = c.sheetIDs[table]
	if !ok {
		return 0, &APIError{
			Kind:    KindNotFound,
			Message: fmt.Sprintf("worksheet %q not found", table),
		}
	}
	return gid, nil
}

// do performs one HTTP call, classifying non-2xx responses and transport
// failures into *APIError.
func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sheets: encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("sheets: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Kind: KindTransient, Message: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("sheets: decode response: %w", err)
		}
	}
	return nil
}

// classify maps a non-2xx response to an APIError kind. The body is the
// standard Google error envelope when present; classification falls back to
// the HTTP status code alone otherwise.
func classify(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &envelope)

	e := &APIError{
		StatusCode: resp.StatusCode,
		Status:     envelope.Error.Status,
		Message:    envelope.Error.Message,
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		envelope.Error.Status == "RESOURCE_EXHAUSTED",
		strings.Contains(envelope.Error.Message, "RATE_LIMIT_EXCEEDED"):
		e.Kind = KindRateLimited
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		e.Kind = KindAuth
	case resp.StatusCode == http.StatusNotFound:
		e.Kind = KindNotFound
	default:
		e.Kind = KindTransient
	}
	return e
}

// columnLetter converts a 1-based column count to its A1 letter
// ("A", "Z", "AA").
func columnLetter(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}

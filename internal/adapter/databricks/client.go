package databricks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
)

const statementsPath = "/api/2.0/sql/statements"

// maxErrorBody caps how much of a non-2xx response body is kept for errors.
const maxErrorBody = 4096

// statementResponse is the wire shape of both the submit and status calls.
type statementResponse struct {
	StatementID string          `json:"statement_id"`
	Status      statementStatus `json:"status"`
	Manifest    *manifest       `json:"manifest,omitempty"`
	Result      *resultData     `json:"result,omitempty"`
}

type statementStatus struct {
	State string                        `json:"state"`
	Error *domain.StatementErrorPayload `json:"error,omitempty"`
}

type manifest struct {
	Schema struct {
		Columns []manifestColumn `json:"columns"`
	} `json:"schema"`
}

type manifestColumn struct {
	Name     string `json:"name"`
	TypeText string `json:"type_text"`
	Position int    `json:"position"`
}

type resultData struct {
	DataArray [][]any   `json:"data_array"`
	Manifest  *manifest `json:"manifest,omitempty"`
}

// columns returns the manifest columns, preferring the top-level manifest and
// falling back to one nested under result.
func (r *statementResponse) columns() []domain.ResultColumn {
	m := r.Manifest
	if (m == nil || len(m.Schema.Columns) == 0) && r.Result != nil {
		m = r.Result.Manifest
	}
	if m == nil || len(m.Schema.Columns) == 0 {
		return nil
	}
	cols := make([]domain.ResultColumn, len(m.Schema.Columns))
	for i, c := range m.Schema.Columns {
		cols[i] = domain.ResultColumn{Name: c.Name, TypeText: c.TypeText}
	}
	return cols
}

func (r *statementResponse) dataArray() [][]any {
	if r.Result == nil || r.Result.DataArray == nil {
		return [][]any{}
	}
	return r.Result.DataArray
}

type submitRequest struct {
	Statement   string `json:"statement"`
	WarehouseID string `json:"warehouse_id"`
	WaitTimeout string `json:"wait_timeout,omitempty"`
}

// Client talks to the SQL Statements API. Authentication is the job of the
// supplied *http.Client (see NewHTTPClient).
type Client struct {
	baseURL     string
	warehouseID string
	waitTimeout string
	http        *http.Client
}

// NewClient builds a client for host, which may be a bare hostname or a URL.
func NewClient(host, warehouseID, waitTimeout string, httpClient *http.Client) (*Client, error) {
	base, err := normalizeHost(host)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(warehouseID) == "" {
		return nil, fmt.Errorf("warehouse id is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:     base,
		warehouseID: warehouseID,
		waitTimeout: waitTimeout,
		http:        httpClient,
	}, nil
}

// WarehouseIDFromHTTPPath extracts the id from a path such as
// /sql/1.0/warehouses/abc123. It returns "" when the path has no warehouse.
func WarehouseIDFromHTTPPath(httpPath string) string {
	const marker = "/warehouses/"
	i := strings.LastIndex(httpPath, marker)
	if i < 0 {
		return ""
	}
	return strings.Trim(httpPath[i+len(marker):], "/")
}

func normalizeHost(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("warehouse host is required")
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid warehouse host %q", host)
	}
	return strings.TrimRight(u.Scheme+"://"+u.Host, "/"), nil
}

// Submit posts a statement. The response may already be terminal.
func (c *Client) Submit(ctx context.Context, sql string) (*statementResponse, error) {
	body, err := gojson.Marshal(submitRequest{
		Statement:   sql,
		WarehouseID: c.warehouseID,
		WaitTimeout: c.waitTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding submit request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+statementsPath, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.TransportError{Op: "submit", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, "submit")
}

// Status fetches the current state of a statement.
func (c *Client) Status(ctx context.Context, statementID string) (*statementResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+statementsPath+"/"+url.PathEscape(statementID), nil)
	if err != nil {
		return nil, &domain.TransportError{Op: "status", Err: err}
	}
	return c.do(req, "status")
}

func (c *Client) do(req *http.Request, op string) (*statementResponse, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	var out statementResponse
	if err := gojson.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &domain.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return &out, nil
}

package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/guillermoBallester/lakeprobe/internal/adapter/memory"
	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"github.com/guillermoBallester/lakeprobe/internal/core/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type mockExecutor struct {
	results map[string]*domain.StatementResult
	errs    map[string]error
	calls   []string
}

func (m *mockExecutor) Execute(_ context.Context, sql string) (*domain.StatementResult, error) {
	m.calls = append(m.calls, sql)
	if err, ok := m.errs[sql]; ok {
		return nil, err
	}
	if res, ok := m.results[sql]; ok {
		return res, nil
	}
	return &domain.StatementResult{StatementID: "s-empty", State: domain.StateSucceeded}, nil
}

type mockExplorer struct {
	err error
}

func (m *mockExplorer) ListCatalogs(context.Context) ([]port.CatalogInfo, error) {
	return []port.CatalogInfo{{Name: "main"}, {Name: "samples"}}, m.err
}

func (m *mockExplorer) ListSchemas(_ context.Context, catalog string) ([]port.SchemaInfo, error) {
	return []port.SchemaInfo{{Catalog: catalog, Name: "sales"}}, m.err
}

func (m *mockExplorer) ListTables(_ context.Context, catalog, schema string) ([]port.TableInfo, error) {
	return []port.TableInfo{
		{Catalog: catalog, Schema: schema, Name: "orders", Type: "table"},
		{Catalog: catalog, Schema: schema, Name: "customers", Type: "table"},
	}, m.err
}

func (m *mockExplorer) ListColumns(_ context.Context, _, _, table string) ([]port.ColumnInfo, error) {
	if table != "orders" {
		return nil, m.err
	}
	return []port.ColumnInfo{
		{Name: "order_id", DataType: "BIGINT", Position: 1},
		{Name: "customer_id", DataType: "BIGINT", Position: 2},
	}, m.err
}

type mockAnalyzer struct {
	lastTable port.TableRef
}

func (m *mockAnalyzer) Correlations(_ context.Context, t port.TableRef, fields []string) ([]domain.Correlation, error) {
	m.lastTable = t
	return []domain.Correlation{{Field1: fields[0], Field2: fields[1], Coefficient: 0.5, Strength: domain.CorrelationModerate}}, nil
}

func (m *mockAnalyzer) CompositeKeys(context.Context, port.TableRef, []string) ([]domain.CompositeKey, error) {
	return []domain.CompositeKey{}, nil
}

func (m *mockAnalyzer) ConditionalStats(context.Context, port.TableRef, string, string) ([]domain.ConditionalStat, error) {
	return []domain.ConditionalStat{{Category: "EU", Count: 4, Mean: 2.5}}, nil
}

func (m *mockAnalyzer) Temporal(context.Context, port.TableRef, string) (*domain.TemporalProfile, error) {
	return &domain.TemporalProfile{}, nil
}

// recordingSession is a client session whose notifications can be read back.
type recordingSession struct {
	id            string
	notifications chan mcp.JSONRPCNotification
}

func newRecordingSession(id string) *recordingSession {
	return &recordingSession{id: id, notifications: make(chan mcp.JSONRPCNotification, 16)}
}

func (r *recordingSession) Initialize()                                         {}
func (r *recordingSession) Initialized() bool                                   { return true }
func (r *recordingSession) NotificationChannel() chan<- mcp.JSONRPCNotification { return r.notifications }
func (r *recordingSession) SessionID() string                                   { return r.id }

func (r *recordingSession) drain() []mcp.JSONRPCNotification {
	var out []mcp.JSONRPCNotification
	for {
		select {
		case n := <-r.notifications:
			out = append(out, n)
		default:
			return out
		}
	}
}

// --- helpers ---

var sessionCounter atomic.Int64

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func callTool(t *testing.T, s *server.MCPServer, toolName string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	session := server.NewInProcessSession(fmt.Sprintf("test-%d", sessionCounter.Add(1)), nil)
	return callToolInSession(t, s, session, toolName, args, nil)
}

func callToolInSession(t *testing.T, s *server.MCPServer, session server.ClientSession, toolName string, args, meta map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.RegisterSession(ctx, session))
	sessionCtx := s.WithContext(ctx, session)

	initBytes, _ := gojson.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": "init", "method": "initialize",
		"params": map[string]any{
			"protocolVersion": "2025-03-26",
			"capabilities":    map[string]any{},
			"clientInfo":      map[string]any{"name": "test", "version": "1.0"},
		},
	})
	s.HandleMessage(sessionCtx, initBytes)

	params := map[string]any{"name": toolName, "arguments": args}
	if meta != nil {
		params["_meta"] = meta
	}
	reqBytes, _ := gojson.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": "call-1", "method": "tools/call", "params": params,
	})
	resp := s.HandleMessage(sessionCtx, reqBytes)
	respBytes, _ := gojson.Marshal(resp)

	var rpc struct {
		Result *mcp.CallToolResult       `json:"result"`
		Error  *struct{ Message string } `json:"error,omitempty"`
	}
	require.NoError(t, gojson.Unmarshal(respBytes, &rpc))
	require.Nil(t, rpc.Error, "unexpected RPC error: %v", rpc.Error)
	require.NotNil(t, rpc.Result)
	return rpc.Result
}

func listToolNames(t *testing.T, s *server.MCPServer) []string {
	t.Helper()
	ctx := context.Background()
	session := server.NewInProcessSession(fmt.Sprintf("test-%d", sessionCounter.Add(1)), nil)
	require.NoError(t, s.RegisterSession(ctx, session))
	sessionCtx := s.WithContext(ctx, session)

	reqBytes, _ := gojson.Marshal(map[string]any{"jsonrpc": "2.0", "id": "list-1", "method": "tools/list"})
	respBytes, _ := gojson.Marshal(s.HandleMessage(sessionCtx, reqBytes))

	var rpc struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, gojson.Unmarshal(respBytes, &rpc))
	names := make([]string, 0, len(rpc.Result.Tools))
	for _, tool := range rpc.Result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func toolText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return ""
	}
	return tc.Text
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, "unexpected tool error: %s", toolText(result))
	var v T
	require.NoError(t, gojson.Unmarshal([]byte(toolText(result)), &v))
	return v
}

type testEnv struct {
	server   *server.MCPServer
	executor *mockExecutor
	analyzer *mockAnalyzer
	snaps    *service.SnapshotService
}

func setupServer(t *testing.T, exec *mockExecutor) *testEnv {
	t.Helper()
	logger := testLogger()
	if exec == nil {
		exec = &mockExecutor{}
	}
	analyzer := &mockAnalyzer{}

	statements := service.NewStatementService(exec, port.NoopAuditor{}, logger, nil, nil, nil)
	snaps := service.NewSnapshotService(memory.NewSnapshotStore(), logger, nil)
	svcs := Services{
		Statements: statements,
		Batch:      service.NewBatchService(statements, logger, nil, nil),
		Snapshots:  snaps,
		Explorer:   service.NewExplorerService(&mockExplorer{}),
		Analysis:   service.NewAnalysisService(analyzer, nil),
	}
	return &testEnv{
		server:   NewServer("0.1.0", svcs, logger, nil, nil),
		executor: exec,
		analyzer: analyzer,
		snaps:    snaps,
	}
}

// profileRow is a positional profile row for a DOUBLE column.
func profileRow(column string, nullPct, mean string) []any {
	return []any{
		"main", "sales", "orders", column, "DOUBLE",
		"200", "190", "10", nullPct, "150", "75.0", "75.0", "25.0", "false", "0",
		"1", "900", mean, "4.5", "40", "10", "60", "99", "120", "0", "0", "0",
	}
}

func positional(id string, rows ...[]any) *domain.StatementResult {
	return &domain.StatementResult{StatementID: id, State: domain.StateSucceeded, Positional: rows}
}

// --- tests ---

func TestRegisterTools_SkipsMissingServices(t *testing.T) {
	s := server.NewMCPServer("test", "0.1.0", server.WithToolCapabilities(true))
	RegisterTools(s, Services{Explorer: service.NewExplorerService(&mockExplorer{})}, testLogger())

	tools := listToolNames(t, s)
	assert.Contains(t, tools, "list_catalogs")
	assert.Contains(t, tools, "describe_table")
	assert.NotContains(t, tools, "execute_statement")
	assert.NotContains(t, tools, "save_snapshot")
	assert.NotContains(t, tools, "correlations")
}

func TestExecuteStatement_NamedRows(t *testing.T) {
	env := setupServer(t, &mockExecutor{results: map[string]*domain.StatementResult{
		"SELECT id, name FROM users": {
			StatementID: "s1", State: domain.StateSucceeded, Polls: 2,
			Columns: []domain.ResultColumn{{Name: "id"}, {Name: "name"}},
			Rows:    []map[string]any{{"id": "1", "name": "alice"}},
		},
	}})

	out := decode[statementOutput](t, callTool(t, env.server, "execute_statement", map[string]any{"sql": "SELECT id, name FROM users"}))
	assert.Equal(t, "s1", out.StatementID)
	assert.Equal(t, domain.StateSucceeded, out.State)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "alice", out.Rows[0]["name"])
	assert.Empty(t, out.Warning)
}

func TestExecuteStatement_PendingCarriesWarning(t *testing.T) {
	env := setupServer(t, &mockExecutor{results: map[string]*domain.StatementResult{
		"SELECT slow()": {StatementID: "s-slow", State: domain.StatePending, Polls: 60},
	}})

	out := decode[statementOutput](t, callTool(t, env.server, "execute_statement", map[string]any{"sql": "SELECT slow()"}))
	assert.Equal(t, domain.StatePending, out.State)
	assert.Contains(t, out.Warning, "s-slow")
	assert.Contains(t, out.Warning, "60")
}

func TestExecuteStatement_MissingSQL(t *testing.T) {
	env := setupServer(t, nil)

	result := callTool(t, env.server, "execute_statement", map[string]any{"sql": "  "})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "sql is required")
}

func TestExecuteStatement_FailedStatementPassesMessage(t *testing.T) {
	env := setupServer(t, &mockExecutor{errs: map[string]error{
		"SELECT * FROM nope": &domain.ExecutionError{StatementID: "s2", State: domain.StateFailed,
			Payload: &domain.StatementErrorPayload{ErrorCode: "TABLE_OR_VIEW_NOT_FOUND", Message: "Table nope not found"}},
	}})

	result := callTool(t, env.server, "execute_statement", map[string]any{"sql": "SELECT * FROM nope"})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "Table nope not found")
}

func TestExecuteStatement_InternalErrorIsHidden(t *testing.T) {
	env := setupServer(t, &mockExecutor{errs: map[string]error{
		"SELECT 1": &domain.TransportError{Op: "submit", Err: errors.New("dial tcp 10.0.0.7:443: connection refused")},
	}})

	result := callTool(t, env.server, "execute_statement", map[string]any{"sql": "SELECT 1"})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "internal error")
	assert.NotContains(t, toolText(result), "10.0.0.7")
}

func TestProfileColumns_DecodesAndSavesSnapshot(t *testing.T) {
	env := setupServer(t, &mockExecutor{
		results: map[string]*domain.StatementResult{
			"q-amount": positional("s1", profileRow("amount", "5.0", "42.5")),
		},
		errs: map[string]error{
			"q-broken": &domain.ExecutionError{StatementID: "s2", State: domain.StateFailed},
		},
	})

	out := decode[profileColumnsOutput](t, callTool(t, env.server, "profile_columns", map[string]any{
		"queries": []any{
			map[string]any{"field_key": "orders.amount", "sql": "q-amount"},
			map[string]any{"field_key": "orders.broken", "sql": "q-broken"},
		},
		"snapshot_name": "nightly",
	}))

	assert.Equal(t, []string{"q-amount", "q-broken"}, env.executor.calls)
	assert.Equal(t, 1, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Outcomes, 2)
	require.NotNil(t, out.Outcomes[0].Profile)
	assert.Equal(t, "amount", out.Outcomes[0].Profile.ColumnName)
	require.NotNil(t, out.Outcomes[0].Profile.Numeric)
	assert.Equal(t, 42.5, out.Outcomes[0].Profile.Numeric.Mean)
	assert.False(t, out.Outcomes[1].Success)

	require.NotNil(t, out.Snapshot)
	assert.Equal(t, "nightly", out.Snapshot.Name)
	assert.Equal(t, 1, out.Snapshot.ColumnCount)

	snap, err := env.snaps.Get(context.Background(), out.Snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, "amount", snap.Columns[0].ColumnName)
}

func TestProfileColumns_Validation(t *testing.T) {
	env := setupServer(t, nil)

	result := callTool(t, env.server, "profile_columns", map[string]any{})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "queries is required")

	result = callTool(t, env.server, "profile_columns", map[string]any{"queries": []any{}})
	assert.True(t, result.IsError)

	result = callTool(t, env.server, "profile_columns", map[string]any{
		"queries": []any{map[string]any{"field_key": "k"}},
	})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "queries[0].sql is required")
	assert.Empty(t, env.executor.calls)
}

func TestProfileColumns_SendsProgressNotifications(t *testing.T) {
	env := setupServer(t, &mockExecutor{results: map[string]*domain.StatementResult{
		"q1": positional("s1", profileRow("a", "0", "1")),
		"q2": positional("s2", profileRow("b", "0", "2")),
	}})
	session := newRecordingSession("progress-session")

	result := callToolInSession(t, env.server, session, "profile_columns", map[string]any{
		"queries": []any{
			map[string]any{"field_key": "t.a", "sql": "q1"},
			map[string]any{"field_key": "t.b", "sql": "q2"},
		},
	}, map[string]any{"progressToken": "tok-1"})
	require.False(t, result.IsError, toolText(result))

	var progress []mcp.JSONRPCNotification
	for _, n := range session.drain() {
		if n.Method == progressMethod {
			progress = append(progress, n)
		}
	}
	require.Len(t, progress, 2)
	assert.Equal(t, "tok-1", progress[0].Params.AdditionalFields["progressToken"])
	assert.EqualValues(t, 2, progress[1].Params.AdditionalFields["progress"])
	assert.EqualValues(t, 2, progress[1].Params.AdditionalFields["total"])
	assert.Equal(t, "t.b: ok", progress[1].Params.AdditionalFields["message"])
}

func TestProfileColumns_NoProgressWithoutToken(t *testing.T) {
	env := setupServer(t, &mockExecutor{})
	session := newRecordingSession("quiet-session")

	result := callToolInSession(t, env.server, session, "profile_columns", map[string]any{
		"queries": []any{map[string]any{"field_key": "k", "sql": "q"}},
	}, nil)
	require.False(t, result.IsError)

	for _, n := range session.drain() {
		assert.NotEqual(t, progressMethod, n.Method)
	}
}

func TestCatalogTools(t *testing.T) {
	env := setupServer(t, nil)

	catalogs := decode[[]port.CatalogInfo](t, callTool(t, env.server, "list_catalogs", nil))
	assert.Len(t, catalogs, 2)

	schemas := decode[[]port.SchemaInfo](t, callTool(t, env.server, "list_schemas", map[string]any{"catalog": "main"}))
	require.Len(t, schemas, 1)
	assert.Equal(t, "main", schemas[0].Catalog)

	tables := decode[[]port.TableInfo](t, callTool(t, env.server, "list_tables", map[string]any{"catalog": "main", "schema": "sales"}))
	assert.Len(t, tables, 2)

	table := map[string]any{"catalog": "main", "schema": "sales", "table": "orders"}
	columns := decode[[]port.ColumnInfo](t, callTool(t, env.server, "list_columns", table))
	assert.Len(t, columns, 2)

	detail := decode[port.TableDetail](t, callTool(t, env.server, "describe_table", table))
	require.Len(t, detail.JoinKeys, 1)
	assert.Equal(t, "customers", detail.JoinKeys[0].ReferencedTable)
}

func TestCatalogTools_InvalidInputIsShown(t *testing.T) {
	env := setupServer(t, nil)

	result := callTool(t, env.server, "list_schemas", map[string]any{})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "invalid input")

	result = callTool(t, env.server, "describe_table", map[string]any{"catalog": "main", "schema": "sales", "table": "missing"})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "not found")
}

func TestSnapshotTools_Lifecycle(t *testing.T) {
	env := setupServer(t, nil)
	mean := func(m float64) map[string]any {
		return map[string]any{"column_name": "amount", "null_percentage": 0.0, "unique_percentage": 100.0,
			"total_rows": 10, "unique_count": 10, "numeric_stats": map[string]any{"mean_value": m}}
	}

	first := decode[domain.SnapshotSummary](t, callTool(t, env.server, "save_snapshot", map[string]any{
		"name": "monday", "profiles": []any{mean(10)},
	}))
	second := decode[domain.SnapshotSummary](t, callTool(t, env.server, "save_snapshot", map[string]any{
		"name": "tuesday", "profiles": []any{mean(12)},
	}))
	assert.Equal(t, 1, first.ColumnCount)

	list := decode[[]domain.SnapshotSummary](t, callTool(t, env.server, "list_snapshots", nil))
	assert.Len(t, list, 2)

	got := decode[domain.Snapshot](t, callTool(t, env.server, "get_snapshot", map[string]any{"id": first.ID}))
	assert.Equal(t, "monday", got.Name)

	diff := decode[compareOutput](t, callTool(t, env.server, "compare_snapshots", map[string]any{
		"before_id": first.ID, "after_id": second.ID,
	}))
	require.Len(t, diff.Columns, 1)
	assert.Equal(t, domain.DiffChanged, diff.Columns[0].Status)
	require.NotNil(t, diff.Columns[0].Changes.Mean)
	assert.Equal(t, 2.0, diff.Columns[0].Changes.Mean.Delta)
	assert.Equal(t, 1, diff.Summary[domain.DiffChanged])

	insights := decode[[]columnInsights](t, callTool(t, env.server, "column_insights", map[string]any{"snapshot_id": first.ID}))
	require.Len(t, insights, 1)
	assert.Equal(t, 100.0, insights[0].QualityScore)
	assert.NotEmpty(t, insights[0].Insights)

	result := callTool(t, env.server, "delete_snapshot", map[string]any{"id": first.ID})
	require.False(t, result.IsError)
	result = callTool(t, env.server, "get_snapshot", map[string]any{"id": first.ID})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "not found")
}

func TestSnapshotTools_Errors(t *testing.T) {
	env := setupServer(t, nil)

	result := callTool(t, env.server, "save_snapshot", map[string]any{"name": " ", "profiles": []any{}})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "invalid input")

	result = callTool(t, env.server, "compare_snapshots", map[string]any{"before_id": "a"})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "after_id")

	result = callTool(t, env.server, "compare_snapshots", map[string]any{"before_id": "a", "after_id": "b"})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "not found")

	snap, err := env.snaps.Save(context.Background(), "x", []domain.ColumnProfile{{ColumnName: "a"}})
	require.NoError(t, err)
	result = callTool(t, env.server, "column_insights", map[string]any{"snapshot_id": snap.ID, "column_name": "zzz"})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "zzz")
}

func TestAnalysisTools(t *testing.T) {
	env := setupServer(t, nil)
	args := func(extra map[string]any) map[string]any {
		m := map[string]any{"catalog": "main", "schema": "sales", "table": "orders"}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}

	corr := decode[[]domain.Correlation](t, callTool(t, env.server, "correlations", args(map[string]any{"fields": []any{"price", "qty"}})))
	require.Len(t, corr, 1)
	assert.Equal(t, "price", corr[0].Field1)
	assert.Equal(t, "orders", env.analyzer.lastTable.Table)

	keys := decode[[]domain.CompositeKey](t, callTool(t, env.server, "composite_keys", args(map[string]any{"fields": []any{"a"}})))
	assert.Empty(t, keys)

	stats := decode[[]domain.ConditionalStat](t, callTool(t, env.server, "conditional_stats",
		args(map[string]any{"numeric_field": "amount", "categorical_field": "region"})))
	assert.Equal(t, "EU", stats[0].Category)

	result := callTool(t, env.server, "temporal_analysis", args(nil))
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "invalid input")
}

// --- sanitizeError tests ---

func TestSanitizeError(t *testing.T) {
	logger := testLogger()

	tests := []struct {
		name        string
		err         error
		contains    string
		notContains string
	}{
		{"invalid input", fmt.Errorf("%w: empty statement", domain.ErrInvalidInput), "empty statement", ""},
		{"not found", fmt.Errorf("snapshot x: %w", domain.ErrNotFound), "snapshot x", ""},
		{"execution", &domain.ExecutionError{StatementID: "s", State: domain.StateCanceled}, "CANCELED", ""},
		{"deadline", fmt.Errorf("polling: %w", context.DeadlineExceeded), "statement timed out", ""},
		{"canceled", context.Canceled, "statement was canceled", ""},
		{"http status", &domain.TransportError{Op: "status", StatusCode: 503, Body: "secret body"}, "HTTP 503", "secret body"},
		{"generic", errors.New("pool exhausted at 10.1.1.1"), "check server logs", "10.1.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := sanitizeError(logger, tt.err, "statement")
			assert.Contains(t, msg, tt.contains)
			if tt.notContains != "" {
				assert.NotContains(t, msg, tt.notContains)
			}
		})
	}
}

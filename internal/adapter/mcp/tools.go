package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"github.com/guillermoBallester/lakeprobe/internal/core/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server metadata
const serverName = "lakeprobe"

// Tool descriptions
const (
	descExecuteStatement = "Execute one SQL statement on the Databricks SQL warehouse and wait for it to settle. " +
		"Returns statement_id, state, and rows. Rows are JSON objects keyed by column name when the warehouse " +
		"returns a schema, otherwise positional arrays under \"positional\". " +
		"A statement still running when the poll budget is spent comes back with state PENDING and a warning; " +
		"its statement_id can be checked later in the warehouse UI."

	descProfileColumns = "Run a batch of profiling statements one after another and decode each first row into a " +
		"column profile (counts, null and unique percentages, type-specific statistics, top values, patterns, samples). " +
		"Each query needs a field_key and sql; description and data_type are optional. " +
		"A failing statement is reported in its outcome and never stops the batch. " +
		"Pass snapshot_name to save the decoded profiles as a snapshot once the batch finishes. " +
		"Progress notifications are sent after every query when the request carries a progress token."

	descListCatalogs = "List the Unity Catalog catalogs visible to the warehouse. Call this first."
	descListSchemas  = "List the schemas of a catalog."
	descListTables   = "List the tables and views of a schema with their type and comment."
	descListColumns  = "List the columns of a table with type, nullability, ordinal position, and comment."

	descDescribeTable = "Describe a table: its comment, columns, and join keys inferred from column naming " +
		"(for example customer_id -> customers). Use this before writing JOINs."

	descSaveSnapshot = "Save column profiles as a named snapshot. " +
		"Pass profiles as returned by profile_columns. Returns the snapshot id."
	descListSnapshots   = "List saved snapshots, newest first, with their column counts."
	descGetSnapshot     = "Fetch one snapshot with all its column profiles."
	descDeleteSnapshot  = "Delete a snapshot by id."
	descCompareSnapshot = "Compare two snapshots column by column. Columns are reported as added, removed or changed; " +
		"changed columns carry before/after/delta for null percentage, uniqueness, quality score and (numeric) mean."

	descColumnInsights = "Derive rule-based insights for the columns of a snapshot: completeness bands, " +
		"primary key candidates, low cardinality, negative or zero-heavy values, outliers, and quality score."

	descCorrelations = "Compute the Pearson correlation for every pair of the given numeric columns, " +
		"with a strength bucket (Very Strong to Very Weak)."
	descCompositeKeys = "Find column pairs whose combined values are at least 95% unique. " +
		"Pairs at 99.9% or more are flagged as potential keys. Returns the top 10."
	descConditionalStats = "Group a numeric column by a categorical column: count, mean, stddev, min, max and median " +
		"for the 20 most frequent categories."
	descTemporalAnalysis = "Distribution of a timestamp column by day of week and hour of day."
)

const (
	paramCatalog = "Catalog name"
	paramSchema  = "Schema name"
	paramTable   = "Table name"
)

// RegisterTools adds every tool whose backing service is present.
func RegisterTools(s *server.MCPServer, svcs Services, logger *slog.Logger) {
	if svcs.Statements != nil {
		addTool(s, 
			mcp.NewTool("execute_statement",
				mcp.WithDescription(descExecuteStatement),
				mcp.WithString("sql",
					mcp.Required(),
					mcp.Description("SQL statement to execute"),
				),
			),
			executeStatementHandler(svcs.Statements, logger),
		)
	}

	if svcs.Batch != nil {
		addTool(s, 
			mcp.NewTool("profile_columns",
				mcp.WithDescription(descProfileColumns),
				mcp.WithArray("queries",
					mcp.Required(),
					mcp.Description("Profiling statements, run in order"),
					mcp.Items(map[string]any{
						"type": "object",
						"properties": map[string]any{
							"field_key":   map[string]any{"type": "string"},
							"sql":         map[string]any{"type": "string"},
							"description": map[string]any{"type": "string"},
							"data_type":   map[string]any{"type": "string"},
						},
						"required": []string{"field_key", "sql"},
					}),
				),
				mcp.WithString("snapshot_name",
					mcp.Description("Save the decoded profiles under this snapshot name (optional)"),
				),
			),
			profileColumnsHandler(svcs.Batch, svcs.Snapshots, logger),
		)
	}

	if svcs.Explorer != nil {
		registerCatalogTools(s, svcs, logger)
	}
	if svcs.Snapshots != nil {
		registerSnapshotTools(s, svcs, logger)
	}
	if svcs.Analysis != nil {
		registerAnalysisTools(s, svcs, logger)
	}
}

func withTable() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("catalog", mcp.Required(), mcp.Description(paramCatalog)),
		mcp.WithString("schema", mcp.Required(), mcp.Description(paramSchema)),
		mcp.WithString("table", mcp.Required(), mcp.Description(paramTable)),
	}
}

// addTool registers handler under tool.Name and tags every call's context with
// the tool name for audit records.
func addTool(s *server.MCPServer, tool mcp.Tool, handler server.ToolHandlerFunc) {
	name := tool.Name
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handler(service.WithToolName(ctx, name), request)
	})
}

func newTool(name, desc string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(desc)}, opts...)...)
}

// stringArg returns the trimmed string argument, or "" when missing.
func stringArg(request mcp.CallToolRequest, name string) string {
	v, _ := request.GetArguments()[name].(string)
	return strings.TrimSpace(v)
}

func stringSliceArg(request mcp.CallToolRequest, name string) []string {
	raw, _ := request.GetArguments()[name].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func tableArg(request mcp.CallToolRequest) port.TableRef {
	return port.TableRef{
		Catalog: stringArg(request, "catalog"),
		Schema:  stringArg(request, "schema"),
		Table:   stringArg(request, "table"),
	}
}

// decodeArg re-decodes a structured argument into v.
func decodeArg(request mcp.CallToolRequest, name string, v any) error {
	raw, ok := request.GetArguments()[name]
	if !ok || raw == nil {
		return fmt.Errorf("%s is required", name)
	}
	data, err := gojson.Marshal(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if err := gojson.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	return nil
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := gojson.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// sanitizeError turns a service error into text safe to return to the
// client. Caller mistakes and statement failures are passed through; anything
// else is logged and replaced by a generic message.
func sanitizeError(logger *slog.Logger, err error, op string) string {
	var execErr *domain.ExecutionError
	var transportErr *domain.TransportError

	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotFound):
		return err.Error()
	case errors.As(err, &execErr):
		return err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return op + " timed out"
	case errors.Is(err, context.Canceled):
		return op + " was canceled"
	case errors.As(err, &transportErr) && transportErr.StatusCode != 0:
		logger.Error("warehouse request failed", slog.String("op", op), slog.String("error", err.Error()))
		return fmt.Sprintf("%s failed: warehouse returned HTTP %d", op, transportErr.StatusCode)
	default:
		logger.Error("tool failed", slog.String("op", op), slog.String("error", err.Error()))
		return fmt.Sprintf("internal error: %s failed, check server logs", op)
	}
}

func toolError(logger *slog.Logger, err error, op string) *mcp.CallToolResult {
	return mcp.NewToolResultError(sanitizeError(logger, err, op))
}

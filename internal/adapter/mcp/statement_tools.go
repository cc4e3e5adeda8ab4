package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const progressMethod = "notifications/progress"

type statementOutput struct {
	*domain.StatementResult
	Warning string `json:"warning,omitempty"`
}

type profileColumnsOutput struct {
	service.BatchResult
	Snapshot *domain.SnapshotSummary `json:"snapshot,omitempty"`
	Warning  string                  `json:"warning,omitempty"`
}

func executeStatementHandler(statements *service.StatementService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql := stringArg(request, "sql")
		if sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}

		result, err := statements.Execute(ctx, sql)
		if err != nil {
			return toolError(logger, err, "statement"), nil
		}

		out := statementOutput{StatementResult: result}
		if result.State == domain.StatePending {
			out.Warning = fmt.Sprintf("statement %s was still running after %d status checks", result.StatementID, result.Polls)
		}
		return jsonResult(out), nil
	}
}

func profileColumnsHandler(batch *service.BatchService, snapshots *service.SnapshotService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var queries []service.ProfilingQuery
		if err := decodeArg(request, "queries", &queries); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(queries) == 0 {
			return mcp.NewToolResultError("queries must not be empty"), nil
		}
		for i, q := range queries {
			if q.SQL == "" {
				return mcp.NewToolResultError(fmt.Sprintf("queries[%d].sql is required", i)), nil
			}
		}

		result := batch.Run(ctx, queries, progressReporter(ctx, request, logger))
		out := profileColumnsOutput{BatchResult: result}

		if name := stringArg(request, "snapshot_name"); name != "" {
			if snapshots == nil {
				out.Warning = "snapshot storage is not configured; profiles were not saved"
				return jsonResult(out), nil
			}
			snap, err := snapshots.Save(ctx, name, result.Profiles())
			if err != nil {
				out.Warning = sanitizeError(logger, err, "save snapshot")
				return jsonResult(out), nil
			}
			sum := snap.Summary()
			out.Snapshot = &sum
		}
		return jsonResult(out), nil
	}
}

// progressReporter forwards batch progress as MCP progress notifications.
// It returns nil when the client did not ask for progress.
func progressReporter(ctx context.Context, request mcp.CallToolRequest, logger *slog.Logger) service.ProgressFunc {
	if request.Params.Meta == nil || request.Params.Meta.ProgressToken == nil {
		return nil
	}
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return nil
	}
	token := request.Params.Meta.ProgressToken

	return func(p service.Progress) {
		status := "ok"
		if !p.Outcome.Success {
			status = "failed"
		}
		err := srv.SendNotificationToClient(ctx, progressMethod, map[string]any{
			"progressToken": token,
			"progress":      p.Current,
			"total":         p.Total,
			"message":       fmt.Sprintf("%s: %s", p.Outcome.FieldKey, status),
		})
		if err != nil {
			logger.Debug("progress notification dropped", slog.String("error", err.Error()))
		}
	}
}

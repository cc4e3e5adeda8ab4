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

type compareOutput struct {
	*domain.SnapshotDiff
	Summary map[domain.DiffStatus]int `json:"summary"`
}

type columnInsights struct {
	ColumnName   string                  `json:"column_name"`
	QualityScore float64                 `json:"quality_score"`
	Completeness float64                 `json:"completeness"`
	Cardinality  domain.CardinalityClass `json:"cardinality"`
	Insights     []domain.Insight        `json:"insights"`
}

func registerSnapshotTools(s *server.MCPServer, svcs Services, logger *slog.Logger) {
	snapshots := svcs.Snapshots
	idParam := func(name string) mcp.ToolOption {
		return mcp.WithString(name, mcp.Required(), mcp.Description("Snapshot id"))
	}

	addTool(s, 
		newTool("save_snapshot", descSaveSnapshot,
			mcp.WithString("name", mcp.Required(), mcp.Description("Snapshot name")),
			mcp.WithArray("profiles", mcp.Required(),
				mcp.Description("Column profiles to store"),
				mcp.Items(map[string]any{"type": "object"}),
			),
		),
		saveSnapshotHandler(snapshots, logger),
	)
	addTool(s, newTool("list_snapshots", descListSnapshots), listSnapshotsHandler(snapshots, logger))
	addTool(s, newTool("get_snapshot", descGetSnapshot, idParam("id")), getSnapshotHandler(snapshots, logger))
	addTool(s, newTool("delete_snapshot", descDeleteSnapshot, idParam("id")), deleteSnapshotHandler(snapshots, logger))
	addTool(s, 
		newTool("compare_snapshots", descCompareSnapshot, idParam("before_id"), idParam("after_id")),
		compareSnapshotsHandler(snapshots, logger),
	)
	addTool(s, 
		newTool("column_insights", descColumnInsights,
			idParam("snapshot_id"),
			mcp.WithString("column_name", mcp.Description("Only this column (optional)")),
		),
		columnInsightsHandler(snapshots, logger),
	)
}

func saveSnapshotHandler(snapshots *service.SnapshotService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var profiles []domain.ColumnProfile
		if err := decodeArg(request, "profiles", &profiles); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		snap, err := snapshots.Save(ctx, stringArg(request, "name"), profiles)
		if err != nil {
			return toolError(logger, err, "save snapshot"), nil
		}
		return jsonResult(snap.Summary()), nil
	}
}

func listSnapshotsHandler(snapshots *service.SnapshotService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := snapshots.List(ctx)
		if err != nil {
			return toolError(logger, err, "list snapshots"), nil
		}
		return jsonResult(list), nil
	}
}

func getSnapshotHandler(snapshots *service.SnapshotService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := stringArg(request, "id")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		snap, err := snapshots.Get(ctx, id)
		if err != nil {
			return toolError(logger, err, "get snapshot"), nil
		}
		return jsonResult(snap), nil
	}
}

func deleteSnapshotHandler(snapshots *service.SnapshotService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := stringArg(request, "id")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		if err := snapshots.Delete(ctx, id); err != nil {
			return toolError(logger, err, "delete snapshot"), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("snapshot %s deleted", id)), nil
	}
}

func compareSnapshotsHandler(snapshots *service.SnapshotService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		beforeID, afterID := stringArg(request, "before_id"), stringArg(request, "after_id")
		if beforeID == "" || afterID == "" {
			return mcp.NewToolResultError("before_id and after_id are required"), nil
		}
		diff, err := snapshots.Compare(ctx, beforeID, afterID)
		if err != nil {
			return toolError(logger, err, "compare snapshots"), nil
		}
		return jsonResult(compareOutput{SnapshotDiff: diff, Summary: diff.Counts()}), nil
	}
}

func columnInsightsHandler(snapshots *service.SnapshotService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := stringArg(request, "snapshot_id")
		if id == "" {
			return mcp.NewToolResultError("snapshot_id is required"), nil
		}
		snap, err := snapshots.Get(ctx, id)
		if err != nil {
			return toolError(logger, err, "column insights"), nil
		}

		column := stringArg(request, "column_name")
		out := []columnInsights{}
		for _, p := range snap.Columns {
			if column != "" && p.ColumnName != column {
				continue
			}
			out = append(out, columnInsights{
				ColumnName:   p.ColumnName,
				QualityScore: p.QualityScore(),
				Completeness: p.Completeness(),
				Cardinality:  p.Cardinality(),
				Insights:     domain.RuleBasedInsights(p),
			})
		}
		if column != "" && len(out) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("column %q not found in snapshot %s", column, id)), nil
		}
		return jsonResult(out), nil
	}
}

package mcp

import (
	"context"
	"log/slog"

	"github.com/guillermoBallester/lakeprobe/internal/core/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerAnalysisTools(s *server.MCPServer, svcs Services, logger *slog.Logger) {
	analysis := svcs.Analysis
	fields := func(desc string) mcp.ToolOption {
		return mcp.WithArray("fields", mcp.Required(),
			mcp.Description(desc),
			mcp.Items(map[string]any{"type": "string"}),
		)
	}

	addTool(s, 
		newTool("correlations", descCorrelations, append(withTable(), fields("Numeric column names"))...),
		correlationsHandler(analysis, logger),
	)
	addTool(s, 
		newTool("composite_keys", descCompositeKeys, append(withTable(), fields("Candidate column names"))...),
		compositeKeysHandler(analysis, logger),
	)
	addTool(s, 
		newTool("conditional_stats", descConditionalStats, append(withTable(),
			mcp.WithString("numeric_field", mcp.Required(), mcp.Description("Numeric column to aggregate")),
			mcp.WithString("categorical_field", mcp.Required(), mcp.Description("Column to group by")),
		)...),
		conditionalStatsHandler(analysis, logger),
	)
	addTool(s, 
		newTool("temporal_analysis", descTemporalAnalysis, append(withTable(),
			mcp.WithString("column", mcp.Required(), mcp.Description("Timestamp or date column")),
		)...),
		temporalHandler(analysis, logger),
	)
}

func correlationsHandler(analysis *service.AnalysisService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		corr, err := analysis.Correlations(ctx, tableArg(request), stringSliceArg(request, "fields"))
		if err != nil {
			return toolError(logger, err, "correlations"), nil
		}
		return jsonResult(corr), nil
	}
}

func compositeKeysHandler(analysis *service.AnalysisService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keys, err := analysis.CompositeKeys(ctx, tableArg(request), stringSliceArg(request, "fields"))
		if err != nil {
			return toolError(logger, err, "composite keys"), nil
		}
		return jsonResult(keys), nil
	}
}

func conditionalStatsHandler(analysis *service.AnalysisService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := analysis.ConditionalStats(ctx, tableArg(request),
			stringArg(request, "numeric_field"), stringArg(request, "categorical_field"))
		if err != nil {
			return toolError(logger, err, "conditional stats"), nil
		}
		return jsonResult(stats), nil
	}
}

func temporalHandler(analysis *service.AnalysisService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		profile, err := analysis.Temporal(ctx, tableArg(request), stringArg(request, "column"))
		if err != nil {
			return toolError(logger, err, "temporal analysis"), nil
		}
		return jsonResult(profile), nil
	}
}

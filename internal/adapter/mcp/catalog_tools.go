package mcp

import (
	"context"
	"log/slog"

	"github.com/guillermoBallester/lakeprobe/internal/core/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerCatalogTools(s *server.MCPServer, svcs Services, logger *slog.Logger) {
	explorer := svcs.Explorer

	addTool(s, newTool("list_catalogs", descListCatalogs), listCatalogsHandler(explorer, logger))
	addTool(s, 
		newTool("list_schemas", descListSchemas,
			mcp.WithString("catalog", mcp.Required(), mcp.Description(paramCatalog)),
		),
		listSchemasHandler(explorer, logger),
	)
	addTool(s, 
		newTool("list_tables", descListTables,
			mcp.WithString("catalog", mcp.Required(), mcp.Description(paramCatalog)),
			mcp.WithString("schema", mcp.Required(), mcp.Description(paramSchema)),
		),
		listTablesHandler(explorer, logger),
	)
	addTool(s, newTool("list_columns", descListColumns, withTable()...), listColumnsHandler(explorer, logger))
	addTool(s, newTool("describe_table", descDescribeTable, withTable()...), describeTableHandler(explorer, logger))
}

func listCatalogsHandler(explorer *service.ExplorerService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		catalogs, err := explorer.ListCatalogs(ctx)
		if err != nil {
			return toolError(logger, err, "list catalogs"), nil
		}
		return jsonResult(catalogs), nil
	}
}

func listSchemasHandler(explorer *service.ExplorerService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		schemas, err := explorer.ListSchemas(ctx, stringArg(request, "catalog"))
		if err != nil {
			return toolError(logger, err, "list schemas"), nil
		}
		return jsonResult(schemas), nil
	}
}

func listTablesHandler(explorer *service.ExplorerService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tables, err := explorer.ListTables(ctx, stringArg(request, "catalog"), stringArg(request, "schema"))
		if err != nil {
			return toolError(logger, err, "list tables"), nil
		}
		return jsonResult(tables), nil
	}
}

func listColumnsHandler(explorer *service.ExplorerService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t := tableArg(request)
		columns, err := explorer.ListColumns(ctx, t.Catalog, t.Schema, t.Table)
		if err != nil {
			return toolError(logger, err, "list columns"), nil
		}
		return jsonResult(columns), nil
	}
}

func describeTableHandler(explorer *service.ExplorerService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t := tableArg(request)
		detail, err := explorer.DescribeTable(ctx, t.Catalog, t.Schema, t.Table)
		if err != nil {
			return toolError(logger, err, "describe table"), nil
		}
		return jsonResult(detail), nil
	}
}

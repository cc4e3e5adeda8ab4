package mcp

import (
	"log/slog"

	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"github.com/guillermoBallester/lakeprobe/internal/core/service"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

const instructions = "lakeprobe runs SQL on a Databricks SQL warehouse and keeps snapshots of column profiles. " +
	"Browse with list_catalogs, list_schemas, list_tables and describe_table. " +
	"Profile columns with profile_columns, save the result as a snapshot, then compare snapshots over time."

// Services bundles the core services exposed as tools. Nil services are
// skipped at registration.
type Services struct {
	Statements *service.StatementService
	Batch      *service.BatchService
	Snapshots  *service.SnapshotService
	Explorer   *service.ExplorerService
	Analysis   *service.AnalysisService
}

// NewServer creates an MCPServer with tools and logging hooks.
func NewServer(version string, svcs Services, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
	)

	RegisterTools(s, svcs, logger)

	return s
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guillermoBallester/lakeprobe/internal/adapter/databricks"
	"github.com/guillermoBallester/lakeprobe/internal/adapter/mcp"
	"github.com/guillermoBallester/lakeprobe/internal/adapter/memory"
	"github.com/guillermoBallester/lakeprobe/internal/adapter/policy"
	"github.com/guillermoBallester/lakeprobe/internal/adapter/postgres"
	"github.com/guillermoBallester/lakeprobe/internal/adapter/s3"
	"github.com/guillermoBallester/lakeprobe/internal/audit"
	"github.com/guillermoBallester/lakeprobe/internal/config"
	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"github.com/guillermoBallester/lakeprobe/internal/core/service"
	"github.com/guillermoBallester/lakeprobe/internal/telemetry"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
)

const serviceName = "lakeprobe"

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	overrides, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr, stdout is reserved for the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting lakeprobe",
		slog.String("version", version),
		slog.String("log_level", cfg.LogLevel.String()),
		slog.String("host", cfg.Host),
		slog.String("wait_timeout", cfg.WaitTimeout),
		slog.String("poll_interval", cfg.PollInterval.String()),
		slog.Int("max_polls", cfg.MaxPolls),
		slog.Bool("strict_poll_timeout", cfg.StrictPollTimeout),
		slog.String("snapshot_store", cfg.SnapshotStore),
		slog.String("transport", cfg.Transport),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracer := telemetry.NoopTracer()
	inst := telemetry.NoopInstruments()
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, serviceName, version,
			attribute.String("lakeprobe.warehouse.host", cfg.Host),
		)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
			}
		}()
		tracer = provider.Tracer()
		inst = telemetry.NewInstruments()
		logger.Info("opentelemetry enabled")
	}

	// Warehouse adapters.
	httpClient, err := databricks.NewHTTPClient(ctx, cfg.Host, databricks.Credentials{
		Token:        cfg.Token,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("building warehouse http client: %w", err)
	}

	warehouseID := cfg.WarehouseID
	if warehouseID == "" {
		warehouseID = databricks.WarehouseIDFromHTTPPath(cfg.HTTPPath)
	}
	client, err := databricks.NewClient(cfg.Host, warehouseID, cfg.WaitTimeout, httpClient)
	if err != nil {
		return fmt.Errorf("building warehouse client: %w", err)
	}
	executor := databricks.NewExecutor(client, databricks.ExecutorConfig{
		PollInterval:      cfg.PollInterval,
		MaxPolls:          cfg.MaxPolls,
		StrictPollTimeout: cfg.StrictPollTimeout,
	}, logger)

	// Policy (optional).
	var pol *policy.Policy
	var masks map[string]domain.MaskType
	if cfg.PolicyFile != "" {
		pol, err = policy.LoadFromFile(cfg.PolicyFile)
		if err != nil {
			return fmt.Errorf("loading policy: %w", err)
		}
		masks = policy.MaskSpec(pol.Context)
		logger.Info("policy loaded",
			slog.String("file", cfg.PolicyFile),
			slog.Int("masked_columns", len(masks)),
		)
	}

	var auditor port.QueryAuditor = port.NoopAuditor{}
	if cfg.AuditLog != "" {
		fa, err := audit.NewFileAuditor(cfg.AuditLog, logger)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer func() { _ = fa.Close() }()
		auditor = fa
		logger.Info("audit log enabled", slog.String("path", cfg.AuditLog))
	}

	repo, closeRepo, err := openSnapshotStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	// Services
	statementSvc := service.NewStatementService(executor, auditor, logger, masks, tracer, inst)

	var explorer port.CatalogExplorer = databricks.NewExplorer(statementSvc)
	var analyzer port.ColumnAnalyzer = databricks.NewAnalyzer(statementSvc)
	if pol != nil {
		explorer = policy.NewPolicyExplorer(explorer, pol)
		analyzer = policy.NewMaskingAnalyzer(analyzer, masks)
	}

	svcs := mcp.Services{
		Statements: statementSvc,
		Batch:      service.NewBatchService(statementSvc, logger, masks, tracer),
		Snapshots:  service.NewSnapshotService(repo, logger, tracer),
		Explorer:   service.NewExplorerService(explorer),
		Analysis:   service.NewAnalysisService(analyzer, tracer),
	}

	mcpServer := mcp.NewServer(version, svcs, logger, tracer, inst)

	if cfg.Transport == "http" {
		return serveHTTP(ctx, cfg, mcpServer, logger)
	}

	logger.Info("serving MCP over stdio")
	if err := mcpserver.NewStdioServer(mcpServer).Listen(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// openSnapshotStore returns the configured snapshot repository and a func
// releasing its resources.
func openSnapshotStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.SnapshotRepository, func(), error) {
	switch cfg.SnapshotStore {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns:        cfg.PoolMaxConns,
			MinConns:        cfg.PoolMinConns,
			MaxConnLifetime: cfg.PoolMaxConnLifetime,
			ApplicationName: serviceName,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to snapshot database: %w", err)
		}
		store := postgres.NewSnapshotStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("preparing snapshot schema: %w", err)
		}
		logger.Info("snapshot store ready",
			slog.String("store", cfg.SnapshotStore),
			slog.String("database_url", redactDSN(cfg.DatabaseURL)),
		)
		return store, pool.Close, nil

	case config.StoreS3:
		store, err := s3.New(ctx, s3.Config{
			Endpoint:         cfg.S3Endpoint,
			Region:           cfg.S3Region,
			Bucket:           cfg.S3Bucket,
			AccessKeyID:      cfg.S3AccessKeyID,
			SecretAccessKey:  cfg.S3SecretAccessKey,
			UseSSL:           cfg.S3UseSSL,
			Prefix:           cfg.S3Prefix,
			AutoCreateBucket: true,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening snapshot bucket: %w", err)
		}
		logger.Info("snapshot store ready",
			slog.String("store", cfg.SnapshotStore),
			slog.String("bucket", cfg.S3Bucket),
			slog.String("prefix", cfg.S3Prefix),
		)
		return store, func() {}, nil

	default:
		logger.Info("snapshot store ready", slog.String("store", config.StoreMemory))
		return memory.NewSnapshotStore(), func() {}, nil
	}
}

// redactDSN masks the password of a database URL for logging.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

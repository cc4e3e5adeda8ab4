package main

import (
	"flag"
	"io"
	"time"

	"github.com/guillermoBallester/lakeprobe/internal/config"
)

// parseFlags maps command-line flags onto config overrides. Only flags that
// were set on the command line override env vars.
func parseFlags(args []string) (config.Overrides, error) {
	fs := flag.NewFlagSet("lakeprobe", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	host := fs.String("host", "", "Databricks workspace hostname")
	warehouseID := fs.String("warehouse-id", "", "SQL warehouse ID")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	waitTimeout := fs.String("wait-timeout", "", "server-side wait per submission: 0s or 5s-50s")
	pollInterval := fs.Duration("poll-interval", 0, "delay between status checks")
	maxPolls := fs.Int("max-polls", 0, "status checks before giving up on a statement")
	strict := fs.Bool("strict-poll-timeout", false, "fail statements that outlive the poll budget")
	snapshotStore := fs.String("snapshot-store", "", "snapshot store: memory, postgres or s3")
	databaseURL := fs.String("database-url", "", "PostgreSQL URL for the postgres snapshot store")
	policyFile := fs.String("policy-file", "", "path to policy YAML")
	transport := fs.String("transport", "", "MCP transport: stdio or http")
	httpAddr := fs.String("http-addr", "", "listen address for the http transport")
	bearer := fs.String("http-bearer-token", "", "bearer token required by the http transport")
	otelEnabled := fs.Bool("otel", false, "enable OpenTelemetry tracing and metrics")
	auditLog := fs.String("audit-log", "", "path to the NDJSON statement audit log")
	poolMax := fs.Int("pool-max-conns", 0, "snapshot database pool max connections")
	poolMin := fs.Int("pool-min-conns", 0, "snapshot database pool min connections")
	poolLifetime := fs.Duration("pool-max-conn-lifetime", 0, "snapshot database connection lifetime")

	if err := fs.Parse(args); err != nil {
		return config.Overrides{}, err
	}

	o := config.Overrides{
		StrictPollTimeout: *strict,
		OTelEnabled:       *otelEnabled,
		AuditLog:          *auditLog,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			o.Host = host
		case "warehouse-id":
			o.WarehouseID = warehouseID
		case "log-level":
			o.LogLevel = logLevel
		case "wait-timeout":
			o.WaitTimeout = waitTimeout
		case "poll-interval":
			o.PollInterval = pollInterval
		case "max-polls":
			o.MaxPolls = maxPolls
		case "snapshot-store":
			o.SnapshotStore = snapshotStore
		case "database-url":
			o.DatabaseURL = databaseURL
		case "policy-file":
			o.PolicyFile = policyFile
		case "transport":
			o.Transport = transport
		case "http-addr":
			o.HTTPAddr = httpAddr
		case "http-bearer-token":
			o.HTTPBearerToken = bearer
		case "pool-max-conns":
			o.PoolMaxConns = int32Ptr(*poolMax)
		case "pool-min-conns":
			o.PoolMinConns = int32Ptr(*poolMin)
		case "pool-max-conn-lifetime":
			o.PoolMaxConnLifetime = durationPtr(*poolLifetime)
		}
	})
	return o, nil
}

func int32Ptr(v int) *int32 {
	n := int32(v)
	return &n
}

func durationPtr(d time.Duration) *time.Duration { return &d }

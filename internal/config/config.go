package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Snapshot store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreS3       = "s3"
)

type Config struct {
	// Warehouse connection.
	Host         string // DATABRICKS_SERVER_HOSTNAME
	HTTPPath     string // warehouse HTTP path, used when WarehouseID is empty
	WarehouseID  string
	Token        string // personal access token
	ClientID     string // OAuth client credentials, used when Token is empty
	ClientSecret string

	// Statement execution.
	WaitTimeout       string        // forwarded verbatim as wait_timeout (default "30s")
	PollInterval      time.Duration // default: 1s
	MaxPolls          int           // default: 60
	StrictPollTimeout bool          // budget exhaustion becomes a TimedOut error
	RequestTimeout    time.Duration // per HTTP request (default 60s)

	// Snapshot storage.
	SnapshotStore string // "memory" (default), "postgres" or "s3"
	DatabaseURL   string

	// Connection pool.
	PoolMaxConns        int32         // default: 5
	PoolMinConns        int32         // default: 1
	PoolMaxConnLifetime time.Duration // default: 30m

	// S3-compatible object store.
	S3Endpoint        string
	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3UseSSL          bool
	S3Prefix          string

	PolicyFile string // optional path to policy YAML

	// Logging.
	LogLevel slog.Level

	// Transport.
	Transport       string // "stdio" (default) or "http"
	HTTPAddr        string // listen address for HTTP transport (default ":8080")
	HTTPBearerToken string // required when transport=http

	// Observability.
	OTelEnabled bool // enable OpenTelemetry tracing and metrics

	// CLI-only fields (not settable via env vars).
	AuditLog string // path to NDJSON audit log file
}

// Overrides holds CLI flag values that override environment variables.
// Pointer fields distinguish "not set" from zero values.
type Overrides struct {
	Host              *string
	WarehouseID       *string
	LogLevel          *string
	WaitTimeout       *string
	PollInterval      *time.Duration
	MaxPolls          *int
	StrictPollTimeout bool
	SnapshotStore     *string
	DatabaseURL       *string
	PolicyFile        *string
	Transport         *string
	HTTPAddr          *string
	HTTPBearerToken   *string
	OTelEnabled       bool
	AuditLog          string

	// Connection pool overrides.
	PoolMaxConns        *int32
	PoolMinConns        *int32
	PoolMaxConnLifetime *time.Duration
}

// Load builds a Config from environment variables, then applies CLI overrides,
// then validates the result.
func Load(overrides Overrides) (*Config, error) {
	cfg := defaults()

	if err := loadEnvVars(cfg); err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config populated with default values.
func defaults() *Config {
	return &Config{
		WaitTimeout:         "30s",
		PollInterval:        time.Second,
		MaxPolls:            60,
		RequestTimeout:      60 * time.Second,
		SnapshotStore:       StoreMemory,
		Transport:           "stdio",
		HTTPAddr:            ":8080",
		PoolMaxConns:        5,
		PoolMinConns:        1,
		PoolMaxConnLifetime: 30 * time.Minute,
		S3UseSSL:            true,
	}
}

// env reads typed environment variables into config fields. Unset or empty
// variables leave the destination untouched. Parse failures are collected so
// one run reports every bad variable.
type env struct {
	errs []error
}

func (e *env) fail(key, val, want string) {
	e.errs = append(e.errs, fmt.Errorf("invalid %s value %q: %s", key, val, want))
}

func (e *env) str(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (e *env) flag(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, "must be a boolean")
		return
	}
	*dst = b
}

func (e *env) duration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, "must be a duration such as 500ms or 2s")
		return
	}
	*dst = d
}

// count reads an integer that must be at least minimum.
func (e *env) count(key string, minimum int64, dst func(int64)) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n < minimum {
		e.fail(key, v, fmt.Sprintf("must be an integer >= %d", minimum))
		return
	}
	dst(n)
}

func (e *env) level(key string, dst *slog.Level) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	l, err := parseLogLevel(v)
	if err != nil {
		e.errs = append(e.errs, err)
		return
	}
	*dst = l
}

// loadEnvVars reads every supported environment variable into cfg.
func loadEnvVars(cfg *Config) error {
	var e env

	// Warehouse.
	cfg.Host = os.Getenv("DATABRICKS_SERVER_HOSTNAME")
	cfg.HTTPPath = os.Getenv("DATABRICKS_HTTP_PATH")
	cfg.WarehouseID = os.Getenv("DATABRICKS_WAREHOUSE_ID")
	cfg.Token = os.Getenv("DATABRICKS_TOKEN")
	cfg.ClientID = os.Getenv("DATABRICKS_CLIENT_ID")
	cfg.ClientSecret = os.Getenv("DATABRICKS_CLIENT_SECRET")

	// Execution.
	e.str("WAIT_TIMEOUT", &cfg.WaitTimeout)
	e.duration("POLL_INTERVAL", &cfg.PollInterval)
	e.count("MAX_POLLS", 0, func(n int64) { cfg.MaxPolls = int(n) })
	e.flag("STRICT_POLL_TIMEOUT", &cfg.StrictPollTimeout)
	e.duration("REQUEST_TIMEOUT", &cfg.RequestTimeout)

	// Snapshot storage.
	if v := os.Getenv("SNAPSHOT_STORE"); v != "" {
		cfg.SnapshotStore = strings.ToLower(strings.TrimSpace(v))
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	e.count("POOL_MAX_CONNS", 1, func(n int64) { cfg.PoolMaxConns = int32(n) })
	e.count("POOL_MIN_CONNS", 0, func(n int64) { cfg.PoolMinConns = int32(n) })
	e.duration("POOL_MAX_CONN_LIFETIME", &cfg.PoolMaxConnLifetime)
	e.str("S3_ENDPOINT", &cfg.S3Endpoint)
	e.str("S3_BUCKET", &cfg.S3Bucket)
	e.str("S3_REGION", &cfg.S3Region)
	e.str("S3_ACCESS_KEY_ID", &cfg.S3AccessKeyID)
	e.str("S3_SECRET_ACCESS_KEY", &cfg.S3SecretAccessKey)
	e.str("S3_PREFIX", &cfg.S3Prefix)
	e.flag("S3_USE_SSL", &cfg.S3UseSSL)

	// Server.
	e.level("LOG_LEVEL", &cfg.LogLevel)
	e.str("POLICY_FILE", &cfg.PolicyFile)
	e.str("TRANSPORT", &cfg.Transport)
	e.str("HTTP_ADDR", &cfg.HTTPAddr)
	e.str("HTTP_BEARER_TOKEN", &cfg.HTTPBearerToken)
	e.flag("OTEL_ENABLED", &cfg.OTelEnabled)

	return errors.Join(e.errs...)
}

// applyOverrides applies CLI flag values on top of the env-loaded config.
func applyOverrides(cfg *Config, o Overrides) error {
	if o.Host != nil {
		cfg.Host = *o.Host
	}
	if o.WarehouseID != nil {
		cfg.WarehouseID = *o.WarehouseID
	}
	if o.LogLevel != nil {
		level, err := parseLogLevel(*o.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	if o.WaitTimeout != nil {
		cfg.WaitTimeout = *o.WaitTimeout
	}
	if o.PollInterval != nil {
		cfg.PollInterval = *o.PollInterval
	}
	if o.MaxPolls != nil {
		if *o.MaxPolls < 0 {
			return fmt.Errorf("invalid --max-polls value: must be a non-negative integer")
		}
		cfg.MaxPolls = *o.MaxPolls
	}
	if o.SnapshotStore != nil {
		cfg.SnapshotStore = strings.ToLower(strings.TrimSpace(*o.SnapshotStore))
	}
	if o.DatabaseURL != nil {
		cfg.DatabaseURL = *o.DatabaseURL
	}
	if o.PolicyFile != nil {
		cfg.PolicyFile = *o.PolicyFile
	}
	if o.Transport != nil {
		cfg.Transport = *o.Transport
	}
	if o.HTTPAddr != nil {
		cfg.HTTPAddr = *o.HTTPAddr
	}
	if o.HTTPBearerToken != nil {
		cfg.HTTPBearerToken = *o.HTTPBearerToken
	}

	if err := applyPoolOverrides(cfg, o); err != nil {
		return err
	}

	cfg.AuditLog = o.AuditLog
	cfg.OTelEnabled = cfg.OTelEnabled || o.OTelEnabled
	cfg.StrictPollTimeout = cfg.StrictPollTimeout || o.StrictPollTimeout

	return nil
}

// applyPoolOverrides applies connection pool CLI flag overrides.
func applyPoolOverrides(cfg *Config, o Overrides) error {
	if o.PoolMaxConns != nil {
		if *o.PoolMaxConns <= 0 {
			return fmt.Errorf("invalid --pool-max-conns value: must be a positive integer")
		}
		cfg.PoolMaxConns = *o.PoolMaxConns
	}
	if o.PoolMinConns != nil {
		if *o.PoolMinConns < 0 {
			return fmt.Errorf("invalid --pool-min-conns value: must be a non-negative integer")
		}
		cfg.PoolMinConns = *o.PoolMinConns
	}
	if o.PoolMaxConnLifetime != nil {
		cfg.PoolMaxConnLifetime = *o.PoolMaxConnLifetime
	}
	return nil
}

// validate checks cross-field constraints on the final config.
func validate(cfg *Config) error {
	if cfg.Host == "" {
		return fmt.Errorf("DATABRICKS_SERVER_HOSTNAME is required (set via env var or --host flag)")
	}
	if cfg.WarehouseID == "" && cfg.HTTPPath == "" {
		return fmt.Errorf("DATABRICKS_WAREHOUSE_ID or DATABRICKS_HTTP_PATH is required")
	}
	if cfg.Token == "" && (cfg.ClientID == "" || cfg.ClientSecret == "") {
		return fmt.Errorf("DATABRICKS_TOKEN or DATABRICKS_CLIENT_ID and DATABRICKS_CLIENT_SECRET are required")
	}
	if err := validateWaitTimeout(cfg.WaitTimeout); err != nil {
		return err
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch cfg.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid TRANSPORT value %q: must be \"stdio\" or \"http\"", cfg.Transport)
	}

	if cfg.Transport == "http" && cfg.HTTPBearerToken == "" {
		return fmt.Errorf("HTTP_BEARER_TOKEN is required when transport is \"http\" (set via env var or --http-bearer-token flag)")
	}

	switch cfg.SnapshotStore {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SNAPSHOT_STORE is \"postgres\"")
		}
	case StoreS3:
		if cfg.S3Endpoint == "" || cfg.S3Bucket == "" {
			return fmt.Errorf("S3_ENDPOINT and S3_BUCKET are required when SNAPSHOT_STORE is \"s3\"")
		}
	default:
		return fmt.Errorf("invalid SNAPSHOT_STORE value %q: must be \"memory\", \"postgres\" or \"s3\"", cfg.SnapshotStore)
	}

	if cfg.PoolMinConns > cfg.PoolMaxConns {
		return fmt.Errorf("POOL_MIN_CONNS (%d) must not exceed POOL_MAX_CONNS (%d)", cfg.PoolMinConns, cfg.PoolMaxConns)
	}

	return nil
}

// validateWaitTimeout accepts "0s" or whole seconds between 5 and 50, the
// range the statements endpoint allows for wait_timeout.
func validateWaitTimeout(s string) error {
	secs, ok := strings.CutSuffix(s, "s")
	n, err := strconv.Atoi(secs)
	if !ok || err != nil || (n != 0 && (n < 5 || n > 50)) {
		return fmt.Errorf("invalid WAIT_TIMEOUT value %q: must be \"0s\" or between \"5s\" and \"50s\"", s)
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type toolNameKey struct{}

// WithToolName returns a context carrying the MCP tool name for audit logging.
func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolNameKey{}, name)
}

func toolNameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(toolNameKey{}).(string); ok {
		return v
	}
	return ""
}

// StatementService wraps the warehouse executor with tracing, metrics,
// auditing and column masking.
type StatementService struct {
	executor port.StatementExecutor
	auditor  port.QueryAuditor
	logger   *slog.Logger
	masks    map[string]domain.MaskType // column-name → mask-type (nil = no masking)
	tracer   trace.Tracer
	inst     port.Instrumentation
}

func NewStatementService(executor port.StatementExecutor, auditor port.QueryAuditor, logger *slog.Logger, masks map[string]domain.MaskType, tracer trace.Tracer, inst port.Instrumentation) *StatementService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	if auditor == nil {
		auditor = port.NoopAuditor{}
	}
	return &StatementService{
		executor: executor,
		auditor:  auditor,
		logger:   logger,
		masks:    masks,
		tracer:   tracer,
		inst:     inst,
	}
}

// Masks returns the column mask map applied to statement results.
func (s *StatementService) Masks() map[string]domain.MaskType {
	return s.masks
}

// Execute runs sql on the warehouse. Name-keyed rows are masked before they
// are returned; positional rows carry no names and are returned as-is.
func (s *StatementService) Execute(ctx context.Context, sql string) (*domain.StatementResult, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, fmt.Errorf("%w: empty statement", domain.ErrInvalidInput)
	}

	ctx, span := s.tracer.Start(ctx, "StatementService.Execute",
		trace.WithAttributes(
			attribute.String("db.system", "databricks"),
			attribute.String("db.operation.name", "statement"),
			attribute.String("db.statement", sql),
		),
	)
	defer span.End()

	start := time.Now()
	res, err := s.executor.Execute(ctx, sql)

	entry := port.AuditEntry{
		At:       start,
		Tool:     toolNameFromCtx(ctx),
		SQL:      sql,
		Duration: time.Since(start),
		Err:      err,
	}
	if res != nil {
		entry.StatementID = res.StatementID
		entry.State = res.State
		entry.Rows = res.RowCount()
		entry.Polls = res.Polls
	}
	var execErr *domain.ExecutionError
	if errors.As(err, &execErr) {
		entry.StatementID = execErr.StatementID
		entry.State = execErr.State
	}
	s.auditor.Record(ctx, entry)
	s.inst.RecordStatement(ctx, port.StatementOutcome{
		State:    string(entry.State),
		Duration: entry.Duration,
		Polls:    entry.Polls,
		Failed:   err != nil,
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "statement failed",
			slog.String("db.statement.id", entry.StatementID),
			slog.String("db.statement.state", string(entry.State)),
			slog.String("error.type", errorType(err)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("db.statement.id", res.StatementID),
		attribute.String("db.statement.state", string(res.State)),
		attribute.Int("db.response.rows", res.RowCount()),
		attribute.Int("db.statement.polls", res.Polls),
	)
	if res.State == domain.StatePending {
		s.logger.WarnContext(ctx, "statement still pending, returning without result",
			slog.String("db.statement.id", res.StatementID),
			slog.Int("polls", res.Polls),
		)
	}
	domain.MaskRows(res.Rows, s.masks)

	return res, nil
}

// errorType classifies err for the error.type log attribute.
func errorType(err error) string {
	var execErr *domain.ExecutionError
	var tErr *domain.TransportError
	switch {
	case errors.As(err, &execErr):
		return "execution_error"
	case errors.As(err, &tErr):
		return "transport_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ProfilingQuery is one profiling statement of a batch. DataType is used to
// decode rows that carry no declared type of their own.
type ProfilingQuery struct {
	FieldKey    string `json:"field_key"`
	SQL         string `json:"sql"`
	Description string `json:"description,omitempty"`
	DataType    string `json:"data_type,omitempty"`
}

// QueryOutcome is the per-query result of a batch. Exactly one of Profile
// (positional row) or Record (name-keyed row) is set when the query returned
// data.
type QueryOutcome struct {
	FieldKey    string                `json:"field_key"`
	Description string                `json:"description,omitempty"`
	Success     bool                  `json:"success"`
	State       domain.StatementState `json:"state,omitempty"`
	Profile     *domain.ColumnProfile `json:"profile,omitempty"`
	Record      map[string]any        `json:"record,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// Progress is reported after each query of a batch finishes.
type Progress struct {
	Current    int          `json:"current"`
	Total      int          `json:"total"`
	Percentage float64      `json:"percentage"`
	Outcome    QueryOutcome `json:"outcome"`
}

// ProgressFunc receives batch progress. It runs on the batch goroutine.
type ProgressFunc func(Progress)

// BatchResult holds one outcome per query, in input order.
type BatchResult struct {
	Outcomes  []QueryOutcome `json:"outcomes"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

// Profiles returns copies of the decoded profiles in input order.
func (r BatchResult) Profiles() []domain.ColumnProfile {
	var out []domain.ColumnProfile
	for _, o := range r.Outcomes {
		if o.Profile != nil {
			out = append(out, o.Profile.Clone())
		}
	}
	return out
}

// BatchService runs profiling queries one after another.
type BatchService struct {
	executor port.StatementExecutor
	logger   *slog.Logger
	masks    map[string]domain.MaskType
	tracer   trace.Tracer
}

func NewBatchService(executor port.StatementExecutor, logger *slog.Logger, masks map[string]domain.MaskType, tracer trace.Tracer) *BatchService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return &BatchService{executor: executor, logger: logger, masks: masks, tracer: tracer}
}

// Run executes queries sequentially. A failing query is recorded in its
// outcome and never aborts the batch. Cancelling ctx fails the remaining
// queries with the context error.
func (s *BatchService) Run(ctx context.Context, queries []ProfilingQuery, progress ProgressFunc) BatchResult {
	ctx, span := s.tracer.Start(ctx, "BatchService.Run",
		trace.WithAttributes(attribute.Int("batch.size", len(queries))),
	)
	defer span.End()

	start := time.Now()
	result := BatchResult{Outcomes: make([]QueryOutcome, 0, len(queries))}
	for i, q := range queries {
		outcome := s.runOne(ctx, q)
		if outcome.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Outcomes = append(result.Outcomes, outcome)

		if progress != nil {
			progress(Progress{
				Current:    i + 1,
				Total:      len(queries),
				Percentage: float64(i+1) / float64(len(queries)) * 100,
				Outcome:    outcome,
			})
		}
	}

	span.SetAttributes(
		attribute.Int("batch.succeeded", result.Succeeded),
		attribute.Int("batch.failed", result.Failed),
	)
	s.logger.InfoContext(ctx, "batch finished",
		slog.Int("queries", len(queries)),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return result
}

func (s *BatchService) runOne(ctx context.Context, q ProfilingQuery) QueryOutcome {
	out := QueryOutcome{FieldKey: q.FieldKey, Description: q.Description}
	if err := ctx.Err(); err != nil {
		out.Error = err.Error()
		return out
	}

	res, err := s.executor.Execute(ctx, q.SQL)
	if err != nil {
		out.Error = err.Error()
		s.logger.WarnContext(ctx, "profiling query failed",
			slog.String("field_key", q.FieldKey),
			slog.String("error", err.Error()),
		)
		return out
	}

	out.State = res.State
	out.Success = res.State == domain.StateSucceeded
	if !out.Success {
		out.Error = "statement " + res.StatementID + " did not finish within the poll budget"
		return out
	}
	if res.RowCount() == 0 {
		return out
	}

	if res.IsPositional() {
		p := domain.DecodeProfileRow(res.Positional[0], q.DataType)
		domain.MaskProfile(&p, domain.MaskFor(s.masks, p))
		out.Profile = &p
		return out
	}
	out.Record = res.Rows[0]
	return out
}

package service

import (
	"context"
	"fmt"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// AnalysisService wraps ColumnAnalyzer for cross-column and temporal analysis.
type AnalysisService struct {
	analyzer port.ColumnAnalyzer
	tracer   trace.Tracer
}

func NewAnalysisService(analyzer port.ColumnAnalyzer, tracer trace.Tracer) *AnalysisService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return &AnalysisService{analyzer: analyzer, tracer: tracer}
}

// Correlations needs at least two fields; fewer yield an empty result.
func (s *AnalysisService) Correlations(ctx context.Context, table port.TableRef, numericFields []string) ([]domain.Correlation, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	if len(numericFields) < 2 {
		return []domain.Correlation{}, nil
	}
	ctx, span := s.start(ctx, "AnalysisService.Correlations", table)
	defer span.End()
	out, err := s.analyzer.Correlations(ctx, table, numericFields)
	return out, traced(span, err)
}

// CompositeKeys needs at least two fields; fewer yield an empty result.
func (s *AnalysisService) CompositeKeys(ctx context.Context, table port.TableRef, fields []string) ([]domain.CompositeKey, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	if len(fields) < 2 {
		return []domain.CompositeKey{}, nil
	}
	ctx, span := s.start(ctx, "AnalysisService.CompositeKeys", table)
	defer span.End()
	out, err := s.analyzer.CompositeKeys(ctx, table, fields)
	if out == nil && err == nil {
		out = []domain.CompositeKey{}
	}
	return out, traced(span, err)
}

func (s *AnalysisService) ConditionalStats(ctx context.Context, table port.TableRef, numericField, categoricalField string) ([]domain.ConditionalStat, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	if numericField == "" || categoricalField == "" {
		return nil, fmt.Errorf("%w: numeric and categorical fields are required", domain.ErrInvalidInput)
	}
	ctx, span := s.start(ctx, "AnalysisService.ConditionalStats", table)
	defer span.End()
	out, err := s.analyzer.ConditionalStats(ctx, table, numericField, categoricalField)
	return out, traced(span, err)
}

func (s *AnalysisService) Temporal(ctx context.Context, table port.TableRef, column string) (*domain.TemporalProfile, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	if column == "" {
		return nil, fmt.Errorf("%w: column is required", domain.ErrInvalidInput)
	}
	ctx, span := s.start(ctx, "AnalysisService.Temporal", table)
	defer span.End()
	out, err := s.analyzer.Temporal(ctx, table, column)
	return out, traced(span, err)
}

func (s *AnalysisService) start(ctx context.Context, name string, table port.TableRef) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "databricks"),
		attribute.String("db.collection.name", table.Catalog+"."+table.Schema+"."+table.Table),
	))
}

func traced(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func validTable(t port.TableRef) error {
	if t.Catalog == "" || t.Schema == "" || t.Table == "" {
		return fmt.Errorf("%w: catalog, schema and table are required", domain.ErrInvalidInput)
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// SnapshotService saves, lists and compares profile snapshots.
type SnapshotService struct {
	repo   port.SnapshotRepository
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
	newID  func() string
}

func NewSnapshotService(repo port.SnapshotRepository, logger *slog.Logger, tracer trace.Tracer) *SnapshotService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return &SnapshotService{
		repo:   repo,
		logger: logger,
		tracer: tracer,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Save stores a deep copy of columns under a fresh id.
func (s *SnapshotService) Save(ctx context.Context, name string, columns []domain.ColumnProfile) (domain.Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Snapshot{}, fmt.Errorf("%w: snapshot name is required", domain.ErrInvalidInput)
	}

	ctx, span := s.tracer.Start(ctx, "SnapshotService.Save")
	defer span.End()

	snap := domain.Snapshot{
		ID:        s.newID(),
		Name:      name,
		CreatedAt: s.now(),
		Columns:   domain.CloneProfiles(columns),
	}
	if snap.Columns == nil {
		snap.Columns = []domain.ColumnProfile{}
	}
	span.SetAttributes(
		attribute.String("snapshot.id", snap.ID),
		attribute.Int("snapshot.columns", len(snap.Columns)),
	)

	if err := s.repo.Save(ctx, snap); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Snapshot{}, fmt.Errorf("saving snapshot %q: %w", name, err)
	}
	s.logger.InfoContext(ctx, "snapshot saved",
		slog.String("snapshot.id", snap.ID),
		slog.String("snapshot.name", snap.Name),
		slog.Int("columns", len(snap.Columns)),
	)
	return snap, nil
}

func (s *SnapshotService) Get(ctx context.Context, id string) (*domain.Snapshot, error) {
	snap, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", id, err)
	}
	return snap, nil
}

// List returns snapshot summaries, newest first.
func (s *SnapshotService) List(ctx context.Context) ([]domain.SnapshotSummary, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	domain.SortSummaries(list)
	return list, nil
}

func (s *SnapshotService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "snapshot deleted", slog.String("snapshot.id", id))
	return nil
}

// Compare diffs snapshot beforeID against afterID. Either id being unknown
// yields an error wrapping domain.ErrNotFound.
func (s *SnapshotService) Compare(ctx context.Context, beforeID, afterID string) (*domain.SnapshotDiff, error) {
	ctx, span := s.tracer.Start(ctx, "SnapshotService.Compare",
		trace.WithAttributes(
			attribute.String("snapshot.before", beforeID),
			attribute.String("snapshot.after", afterID),
		),
	)
	defer span.End()

	before, err := s.Get(ctx, beforeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	after, err := s.Get(ctx, afterID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	diff := domain.CompareSnapshots(*before, *after)
	return &diff, nil
}

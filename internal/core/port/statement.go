package port

import (
	"context"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
)

// StatementExecutor runs one SQL statement on the remote warehouse and waits
// for it to settle. Terminal failures are returned as *domain.ExecutionError
// and endpoint failures as *domain.TransportError. A statement still pending
// when the poll budget runs out is returned without error.
type StatementExecutor interface {
	Execute(ctx context.Context, sql string) (*domain.StatementResult, error)
}

// SnapshotRepository persists profile snapshots. Save and Delete are atomic
// with respect to List and Get.
type SnapshotRepository interface {
	Save(ctx context.Context, snap domain.Snapshot) error
	Get(ctx context.Context, id string) (*domain.Snapshot, error)
	List(ctx context.Context) ([]domain.SnapshotSummary, error)
	Delete(ctx context.Context, id string) error
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotStore persists snapshots in a profile_snapshots table. Column
// profiles are stored as one JSONB document per snapshot.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *SnapshotStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, queryCreateSnapshots); err != nil {
		return fmt.Errorf("creating snapshot table: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("%w: snapshot id is required", domain.ErrInvalidInput)
	}
	cols := snap.Columns
	if cols == nil {
		cols = []domain.ColumnProfile{}
	}
	doc, err := gojson.Marshal(cols)
	if err != nil {
		return fmt.Errorf("encoding snapshot columns: %w", err)
	}
	if _, err := s.pool.Exec(ctx, queryInsertSnapshot,
		snap.ID, snap.Name, snap.CreatedAt, len(cols), doc,
	); err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Get(ctx context.Context, id string) (*domain.Snapshot, error) {
	var (
		snap domain.Snapshot
		doc  []byte
	)
	err := s.pool.QueryRow(ctx, queryGetSnapshot, id).Scan(&snap.ID, &snap.Name, &snap.CreatedAt, &doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	if err := gojson.Unmarshal(doc, &snap.Columns); err != nil {
		return nil, fmt.Errorf("decoding snapshot columns: %w", err)
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	return &snap, nil
}

func (s *SnapshotStore) List(ctx context.Context) ([]domain.SnapshotSummary, error) {
	rows, err := s.pool.Query(ctx, queryListSnapshots)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	list := []domain.SnapshotSummary{}
	for rows.Next() {
		var sum domain.SnapshotSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.CreatedAt, &sum.ColumnCount); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		sum.CreatedAt = sum.CreatedAt.UTC()
		list = append(list, sum)
	}
	return list, rows.Err()
}

func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, queryDeleteSnapshot, id)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

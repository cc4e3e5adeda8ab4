package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
)

// SnapshotStore keeps snapshots in process memory. It stores and returns
// deep copies so callers can never mutate a saved snapshot.
type SnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]domain.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snaps: make(map[string]domain.Snapshot)}
}

func (s *SnapshotStore) Save(_ context.Context, snap domain.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("%w: snapshot id is required", domain.ErrInvalidInput)
	}
	c := snap.Clone()
	s.mu.Lock()
	s.snaps[snap.ID] = c
	s.mu.Unlock()
	return nil
}

func (s *SnapshotStore) Get(_ context.Context, id string) (*domain.Snapshot, error) {
	s.mu.RLock()
	snap, ok := s.snaps[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
	}
	c := snap.Clone()
	return &c, nil
}

func (s *SnapshotStore) List(_ context.Context) ([]domain.SnapshotSummary, error) {
	s.mu.RLock()
	out := make([]domain.SnapshotSummary, 0, len(s.snaps))
	for _, snap := range s.snaps {
		out = append(out, snap.Summary())
	}
	s.mu.RUnlock()
	domain.SortSummaries(out)
	return out, nil
}

func (s *SnapshotStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snaps[id]; !ok {
		return fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
	}
	delete(s.snaps, id)
	return nil
}

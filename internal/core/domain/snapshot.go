package domain

import (
	"cmp"
	"slices"
	"time"
)

// Snapshot is a named, immutable capture of a profiling pass.
type Snapshot struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"created_at"`
	Columns   []ColumnProfile `json:"columns"`
}

// SnapshotSummary is the list view of a snapshot.
type SnapshotSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	ColumnCount int       `json:"column_count"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Columns = CloneProfiles(s.Columns)
	return c
}

// Summary returns the list view of s.
func (s Snapshot) Summary() SnapshotSummary {
	return SnapshotSummary{
		ID:          s.ID,
		Name:        s.Name,
		CreatedAt:   s.CreatedAt,
		ColumnCount: len(s.Columns),
	}
}

// SortSummaries orders summaries newest first, breaking ties by id.
func SortSummaries(list []SnapshotSummary) {
	slices.SortFunc(list, func(a, b SnapshotSummary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

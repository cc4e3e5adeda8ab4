// Package snapshottest holds the behavioural contract every
// port.SnapshotRepository implementation must satisfy.
package snapshottest

import (
	"context"
	"testing"
	"time"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample returns a snapshot with two profiled columns.
func Sample(id, name string, createdAt time.Time) domain.Snapshot {
	return domain.Snapshot{
		ID:        id,
		Name:      name,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
		Columns: []domain.ColumnProfile{
			{
				Catalog: "main", Schema: "sales", Table: "orders",
				ColumnName: "amount", DocumentedType: "DOUBLE",
				TotalRows: 100, NonNullCount: 95, NullCount: 5, NullPercentage: 5, DistinctCount: 80, UniquePercentage: 80,
				Numeric:   &domain.NumericStats{Min: 1, Max: 99, Mean: 42.5, Stddev: 3},
				TopValues: []domain.ValueFrequency{{Value: "10", Frequency: 7, FrequencyPct: 7}},
			},
			{
				Catalog: "main", Schema: "sales", Table: "orders",
				ColumnName: "region", DocumentedType: "STRING",
				TotalRows: 100, NonNullCount: 100, DistinctCount: 4, UniquePercentage: 4, IsCategorical: true,
				String:       &domain.StringStats{MinLength: 2, MaxLength: 4, AvgLength: 2.5},
				FirstSamples: []string{"EU", "US"},
			},
		},
	}
}

// Run exercises newRepo against the repository contract. newRepo must
// return an empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) port.SnapshotRepository) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("save then get returns an equal copy", func(t *testing.T) {
		repo := newRepo(t)
		snap := Sample("a", "before", base)
		require.NoError(t, repo.Save(ctx, snap))

		got, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, snap.ID, got.ID)
		assert.Equal(t, snap.Name, got.Name)
		assert.True(t, snap.CreatedAt.Equal(got.CreatedAt))
		require.Len(t, got.Columns, 2)
		assert.Equal(t, "amount", got.Columns[0].ColumnName)
		assert.Equal(t, 42.5, got.Columns[0].Numeric.Mean)
		assert.Equal(t, []string{"EU", "US"}, got.Columns[1].FirstSamples)
	})

	t.Run("get unknown id is not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("mutating the saved value does not change the stored copy", func(t *testing.T) {
		repo := newRepo(t)
		snap := Sample("a", "before", base)
		require.NoError(t, repo.Save(ctx, snap))
		snap.Columns[0].ColumnName = "changed"
		snap.Columns[0].Numeric.Mean = -1

		got, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "amount", got.Columns[0].ColumnName)
		assert.Equal(t, 42.5, got.Columns[0].Numeric.Mean)

		got.Columns[1].FirstSamples[0] = "XX"
		again, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "EU", again.Columns[1].FirstSamples[0])
	})

	t.Run("list returns summaries newest first", func(t *testing.T) {
		repo := newRepo(t)
		empty, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		require.NoError(t, repo.Save(ctx, Sample("old", "first", base)))
		require.NoError(t, repo.Save(ctx, Sample("new", "second", base.Add(time.Hour))))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "new", list[0].ID)
		assert.Equal(t, "second", list[0].Name)
		assert.Equal(t, 2, list[0].ColumnCount)
		assert.Equal(t, "old", list[1].ID)
	})

	t.Run("delete removes the snapshot", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, Sample("a", "x", base)))
		require.NoError(t, repo.Delete(ctx, "a"))

		_, err := repo.Get(ctx, "a")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("delete unknown id is not found", func(t *testing.T) {
		repo := newRepo(t)
		assert.ErrorIs(t, repo.Delete(ctx, "missing"), domain.ErrNotFound)
	})
}

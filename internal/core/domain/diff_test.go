package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(id string, cols ...ColumnProfile) Snapshot {
	return Snapshot{ID: id, Name: "snap-" + id, CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Columns: cols}
}

func TestCompareSnapshots_Self(t *testing.T) {
	t.Parallel()
	a := testSnapshot("a",
		ColumnProfile{ColumnName: "id", NullPercentage: 0, UniquePercentage: 100, Numeric: &NumericStats{Mean: 50}},
		ColumnProfile{ColumnName: "email", NullPercentage: 12.5, UniquePercentage: 90},
	)

	diff := CompareSnapshots(a, a)

	counts := diff.Counts()
	assert.Zero(t, counts[DiffAdded])
	assert.Zero(t, counts[DiffRemoved])
	assert.Equal(t, 2, counts[DiffChanged])
	for _, c := range diff.Columns {
		require.NotNil(t, c.Changes)
		assert.Zero(t, c.Changes.Nulls.Delta)
		assert.Zero(t, c.Changes.Uniqueness.Delta)
		assert.Zero(t, c.Changes.Quality.Delta)
		if c.Changes.Mean != nil {
			assert.Zero(t, c.Changes.Mean.Delta)
		}
	}
}

func TestCompareSnapshots_AddedRemovedChanged(t *testing.T) {
	t.Parallel()
	before := testSnapshot("a",
		ColumnProfile{ColumnName: "id", UniquePercentage: 100},
		ColumnProfile{ColumnName: "legacy_code", NullPercentage: 80},
		ColumnProfile{ColumnName: "amount", NullPercentage: 10, UniquePercentage: 40, Numeric: &NumericStats{Mean: 10}},
	)
	after := testSnapshot("b",
		ColumnProfile{ColumnName: "id", UniquePercentage: 99},
		ColumnProfile{ColumnName: "amount", NullPercentage: 40, UniquePercentage: 45, Numeric: &NumericStats{Mean: 12.5}},
		ColumnProfile{ColumnName: "country"},
	)

	diff := CompareSnapshots(before, after)

	assert.Equal(t, "a", diff.Before.ID)
	assert.Equal(t, "b", diff.After.ID)

	byName := map[string]ColumnDiff{}
	for _, c := range diff.Columns {
		byName[c.ColumnName] = c
	}
	require.Len(t, byName, 4)

	assert.Equal(t, DiffAdded, byName["country"].Status)
	assert.Nil(t, byName["country"].Changes)
	assert.Equal(t, DiffRemoved, byName["legacy_code"].Status)
	assert.Nil(t, byName["legacy_code"].Changes)

	amount := byName["amount"]
	assert.Equal(t, DiffChanged, amount.Status)
	require.NotNil(t, amount.Changes)
	assert.Equal(t, MetricDelta{Before: 10, After: 40, Delta: 30}, amount.Changes.Nulls)
	assert.Equal(t, MetricDelta{Before: 40, After: 45, Delta: 5}, amount.Changes.Uniqueness)
	assert.Equal(t, MetricDelta{Before: 90, After: 70, Delta: -20}, amount.Changes.Quality)
	require.NotNil(t, amount.Changes.Mean)
	assert.Equal(t, 2.5, amount.Changes.Mean.Delta)

	id := byName["id"]
	assert.Equal(t, DiffChanged, id.Status)
	assert.Nil(t, id.Changes.Mean, "mean needs numeric stats on both sides")
	assert.Equal(t, -1.0, id.Changes.Uniqueness.Delta)

	var changed []string
	for _, c := range diff.Columns {
		if c.Status == DiffChanged {
			changed = append(changed, c.ColumnName)
		}
	}
	assert.ElementsMatch(t, []string{"id", "amount"}, changed)
}

func TestCompareSnapshots_MeanOnlyWhenBothNumeric(t *testing.T) {
	t.Parallel()
	before := testSnapshot("a", ColumnProfile{ColumnName: "x", Numeric: &NumericStats{Mean: 1}})
	after := testSnapshot("b", ColumnProfile{ColumnName: "x"})

	diff := CompareSnapshots(before, after)
	require.Len(t, diff.Columns, 1)
	assert.Nil(t, diff.Columns[0].Changes.Mean)
}

func TestCompareSnapshots_Empty(t *testing.T) {
	t.Parallel()
	diff := CompareSnapshots(testSnapshot("a"), testSnapshot("b"))
	assert.NotNil(t, diff.Columns)
	assert.Empty(t, diff.Columns)
}

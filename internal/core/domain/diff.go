package domain

import (
	"slices"
	"time"
)

// DiffStatus classifies a column in a SnapshotDiff.
type DiffStatus string

const (
	DiffAdded   DiffStatus = "added"
	DiffRemoved DiffStatus = "removed"
	DiffChanged DiffStatus = "changed"
)

// MetricDelta is a before/after pair; Delta is After minus Before.
type MetricDelta struct {
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Delta  float64 `json:"delta"`
}

func newDelta(before, after float64) MetricDelta {
	return MetricDelta{Before: before, After: after, Delta: after - before}
}

// ColumnChanges is present only on changed entries. Mean is set only when
// both sides carry numeric statistics.
type ColumnChanges struct {
	Nulls      MetricDelta  `json:"nulls"`
	Uniqueness MetricDelta  `json:"uniqueness"`
	Quality    MetricDelta  `json:"quality"`
	Mean       *MetricDelta `json:"mean,omitempty"`
}

// ColumnDiff is the comparison result for one column name.
type ColumnDiff struct {
	ColumnName string         `json:"column_name"`
	Status     DiffStatus     `json:"status"`
	Changes    *ColumnChanges `json:"changes,omitempty"`
}

// SnapshotRef identifies one side of a diff.
type SnapshotRef struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotDiff compares two snapshots column by column.
type SnapshotDiff struct {
	Before  SnapshotRef  `json:"before"`
	After   SnapshotRef  `json:"after"`
	Columns []ColumnDiff `json:"columns"`
}

// Counts returns how many entries carry each status.
func (d SnapshotDiff) Counts() map[DiffStatus]int {
	counts := map[DiffStatus]int{DiffAdded: 0, DiffRemoved: 0, DiffChanged: 0}
	for _, c := range d.Columns {
		counts[c.Status]++
	}
	return counts
}

// CompareSnapshots diffs before against after over the union of column names.
// Columns are keyed by name; if a snapshot repeats a name the last one wins.
// Entries are sorted by column name.
func CompareSnapshots(before, after Snapshot) SnapshotDiff {
	b := indexColumns(before.Columns)
	a := indexColumns(after.Columns)

	names := make([]string, 0, len(b)+len(a))
	for name := range b {
		names = append(names, name)
	}
	for name := range a {
		if _, ok := b[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	diff := SnapshotDiff{
		Before:  SnapshotRef{ID: before.ID, Name: before.Name, CreatedAt: before.CreatedAt},
		After:   SnapshotRef{ID: after.ID, Name: after.Name, CreatedAt: after.CreatedAt},
		Columns: make([]ColumnDiff, 0, len(names)),
	}

	for _, name := range names {
		bp, inBefore := b[name]
		ap, inAfter := a[name]
		switch {
		case inBefore && inAfter:
			diff.Columns = append(diff.Columns, ColumnDiff{
				ColumnName: name,
				Status:     DiffChanged,
				Changes:    compareColumn(bp, ap),
			})
		case inAfter:
			diff.Columns = append(diff.Columns, ColumnDiff{ColumnName: name, Status: DiffAdded})
		default:
			diff.Columns = append(diff.Columns, ColumnDiff{ColumnName: name, Status: DiffRemoved})
		}
	}

	return diff
}

func compareColumn(before, after ColumnProfile) *ColumnChanges {
	changes := &ColumnChanges{
		Nulls:      newDelta(before.NullPercentage, after.NullPercentage),
		Uniqueness: newDelta(before.UniquePercentage, after.UniquePercentage),
		Quality:    newDelta(before.QualityScore(), after.QualityScore()),
	}
	if before.Numeric != nil && after.Numeric != nil {
		mean := newDelta(before.Numeric.Mean, after.Numeric.Mean)
		changes.Mean = &mean
	}
	return changes
}

func indexColumns(cols []ColumnProfile) map[string]ColumnProfile {
	m := make(map[string]ColumnProfile, len(cols))
	for _, c := range cols {
		m[c.ColumnName] = c
	}
	return m
}

package databricks

import (
	"context"
	"fmt"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
)

// Analyzer runs cross-column and temporal queries against one table. Every
// query is a separate statement on the warehouse.
type Analyzer struct {
	exec port.StatementExecutor
}

func NewAnalyzer(exec port.StatementExecutor) *Analyzer {
	return &Analyzer{exec: exec}
}

// Correlations computes CORR for every pair in the upper triangle of fields.
// A NULL coefficient (constant column, no overlapping rows) is reported as 0.
func (a *Analyzer) Correlations(ctx context.Context, table port.TableRef, fields []string) ([]domain.Correlation, error) {
	pairs := domain.UpperTrianglePairs(fields)
	out := make([]domain.Correlation, 0, len(pairs))
	for _, p := range pairs {
		sql := fmt.Sprintf(queryCorrelation, quoteIdent(p.First), quoteIdent(p.Second), quoteTable(table))
		res, err := settled(ctx, a.exec, sql)
		if err != nil {
			return nil, fmt.Errorf("correlating %s and %s: %w", p.First, p.Second, err)
		}
		r, ok := firstRow(res)
		if !ok {
			continue
		}
		coef := domain.ToFloat(r.get("correlation", 0), 0)
		out = append(out, domain.Correlation{
			Field1:      p.First,
			Field2:      p.Second,
			Coefficient: coef,
			Strength:    domain.ClassifyCorrelation(coef),
		})
	}
	return out, nil
}

// CompositeKeys reports column pairs at least 95% unique across the table.
func (a *Analyzer) CompositeKeys(ctx context.Context, table port.TableRef, fields []string) ([]domain.CompositeKey, error) {
	res, err := settled(ctx, a.exec, fmt.Sprintf(queryRowCount, quoteTable(table)))
	if err != nil {
		return nil, fmt.Errorf("counting rows: %w", err)
	}
	var total int64
	if r, ok := firstRow(res); ok {
		total = domain.ToInt(r.get("total", 0), 0)
	}

	var keys []domain.CompositeKey
	for _, p := range domain.UpperTrianglePairs(fields) {
		sql := fmt.Sprintf(queryPairDistinct, quoteIdent(p.First), quoteIdent(p.Second), quoteTable(table))
		res, err := settled(ctx, a.exec, sql)
		if err != nil {
			return nil, fmt.Errorf("counting distinct %s, %s: %w", p.First, p.Second, err)
		}
		r, ok := firstRow(res)
		if !ok {
			continue
		}
		if key, ok := domain.NewCompositeKeyCandidate(p, domain.ToInt(r.get("unique_count", 0), 0), total); ok {
			keys = append(keys, key)
		}
	}
	return domain.RankCompositeKeys(keys), nil
}

// ConditionalStats summarises numericField per value of categoricalField for
// the 20 most frequent categories.
func (a *Analyzer) ConditionalStats(ctx context.Context, table port.TableRef, numericField, categoricalField string) ([]domain.ConditionalStat, error) {
	sql := fmt.Sprintf(queryConditionalStats, quoteIdent(numericField), quoteIdent(categoricalField), quoteTable(table))
	res, err := settled(ctx, a.exec, sql)
	if err != nil {
		return nil, fmt.Errorf("conditional stats of %s by %s: %w", numericField, categoricalField, err)
	}
	rows := resultRows(res)
	out := make([]domain.ConditionalStat, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.ConditionalStat{
			Category: r.str("category", 0),
			Count:    domain.ToInt(r.get("count", 1), 0),
			Mean:     domain.ToFloat(r.get("mean_value", 2), 0),
			Stddev:   domain.ToFloat(r.get("stddev_value", 3), 0),
			Min:      domain.ToFloat(r.get("min_value", 4), 0),
			Max:      domain.ToFloat(r.get("max_value", 5), 0),
			Median:   domain.ToFloat(r.get("median_value", 6), 0),
		})
	}
	return out, nil
}

// Temporal returns the day-of-week and hour-of-day distributions of column.
func (a *Analyzer) Temporal(ctx context.Context, table port.TableRef, column string) (*domain.TemporalProfile, error) {
	col, tbl := quoteIdent(column), quoteTable(table)

	res, err := settled(ctx, a.exec, fmt.Sprintf(queryDayOfWeek, col, tbl))
	if err != nil {
		return nil, fmt.Errorf("day of week distribution of %s: %w", column, err)
	}
	profile := &domain.TemporalProfile{
		DayOfWeek: []domain.DayCount{},
		HourOfDay: []domain.HourCount{},
	}
	for _, r := range resultRows(res) {
		profile.DayOfWeek = append(profile.DayOfWeek, domain.DayCount{
			Day:   r.str("day_name", 0),
			Count: domain.ToInt(r.get("count", 1), 0),
		})
	}

	res, err = settled(ctx, a.exec, fmt.Sprintf(queryHourOfDay, col, tbl))
	if err != nil {
		return nil, fmt.Errorf("hour of day distribution of %s: %w", column, err)
	}
	for _, r := range resultRows(res) {
		profile.HourOfDay = append(profile.HourOfDay, domain.HourCount{
			Hour:  domain.ToInt(r.get("hour", 0), 0),
			Count: domain.ToInt(r.get("count", 1), 0),
		})
	}
	return profile, nil
}

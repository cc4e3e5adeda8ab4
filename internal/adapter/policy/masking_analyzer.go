package policy

import (
	"context"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
)

// MaskingAnalyzer decorates a ColumnAnalyzer to mask raw category values
// returned by conditional statistics.
type MaskingAnalyzer struct {
	port.ColumnAnalyzer
	masks map[string]domain.MaskType
}

// NewMaskingAnalyzer wraps an existing ColumnAnalyzer with column masking.
func NewMaskingAnalyzer(inner port.ColumnAnalyzer, masks map[string]domain.MaskType) *MaskingAnalyzer {
	return &MaskingAnalyzer{ColumnAnalyzer: inner, masks: masks}
}

func (a *MaskingAnalyzer) ConditionalStats(ctx context.Context, table port.TableRef, numericField, categoricalField string) ([]domain.ConditionalStat, error) {
	stats, err := a.ColumnAnalyzer.ConditionalStats(ctx, table, numericField, categoricalField)
	if err != nil {
		return nil, err
	}

	mask := domain.MaskFor(a.masks, domain.ColumnProfile{
		Catalog:    table.Catalog,
		Schema:     table.Schema,
		Table:      table.Table,
		ColumnName: categoricalField,
	})
	if mask == "" {
		return stats, nil
	}
	for i := range stats {
		stats[i].Category = domain.ToString(domain.ApplyMask(stats[i].Category, mask))
	}
	return stats, nil
}

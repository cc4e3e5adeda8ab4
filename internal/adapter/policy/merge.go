package policy

import (
	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
)

// MergeTableInfoList fills empty table comments from the policy. Comments
// set in the catalog always win.
func MergeTableInfoList(tables []port.TableInfo, ctx ContextConfig) {
	for i, t := range tables {
		if tc, ok := ctx.Table(t.Catalog, t.Schema, t.Name); ok && t.Comment == "" && tc.Description != "" {
			tables[i].Comment = tc.Description
		}
	}
}

// MergeColumnInfoList fills empty column comments of one table.
func MergeColumnInfoList(catalog, schema, table string, columns []port.ColumnInfo, ctx ContextConfig) {
	if tc, ok := ctx.Table(catalog, schema, table); ok {
		mergeColumns(columns, tc)
	}
}

func mergeColumns(columns []port.ColumnInfo, tc TableContext) {
	for i, col := range columns {
		if cc, ok := tc.Columns[col.Name]; ok && col.Comment == "" && cc.Description != "" {
			columns[i].Comment = cc.Description
		}
	}
}

// MaskSpec extracts the mask map used for statement results and profiles.
// Every masked column appears twice: under its qualified name
// (catalog.schema.table.column) and under its bare name.
func MaskSpec(ctx ContextConfig) map[string]domain.MaskType {
	spec := make(map[string]domain.MaskType)
	for key, tc := range ctx.Tables {
		for _, col := range tc.MaskedColumns() {
			mask := tc.Columns[col].Mask
			spec[key+"."+col] = mask
			spec[col] = mask
		}
	}
	return spec
}

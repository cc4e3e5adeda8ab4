package policy

import (
	"context"

	"github.com/guillermoBallester/lakeprobe/internal/core/port"
)

var _ port.CatalogExplorer = (*PolicyExplorer)(nil)

// PolicyExplorer fills empty table and column comments from the policy.
// Catalog and schema listings pass through untouched.
type PolicyExplorer struct {
	port.CatalogExplorer
	overlay ContextConfig
}

func NewPolicyExplorer(inner port.CatalogExplorer, pol *Policy) *PolicyExplorer {
	return &PolicyExplorer{CatalogExplorer: inner, overlay: pol.Context}
}

func (p *PolicyExplorer) ListTables(ctx context.Context, catalog, schema string) ([]port.TableInfo, error) {
	tables, err := p.CatalogExplorer.ListTables(ctx, catalog, schema)
	if err != nil {
		return nil, err
	}
	MergeTableInfoList(tables, p.overlay)
	return tables, nil
}

func (p *PolicyExplorer) ListColumns(ctx context.Context, catalog, schema, table string) ([]port.ColumnInfo, error) {
	columns, err := p.CatalogExplorer.ListColumns(ctx, catalog, schema, table)
	if err != nil {
		return nil, err
	}
	MergeColumnInfoList(catalog, schema, table, columns, p.overlay)
	return columns, nil
}

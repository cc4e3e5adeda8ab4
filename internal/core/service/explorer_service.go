package service

import (
	"context"
	"fmt"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
)

// ExplorerService wraps CatalogExplorer and adds table descriptions with
// inferred join keys.
type ExplorerService struct {
	explorer port.CatalogExplorer
}

func NewExplorerService(explorer port.CatalogExplorer) *ExplorerService {
	return &ExplorerService{explorer: explorer}
}

func (s *ExplorerService) ListCatalogs(ctx context.Context) ([]port.CatalogInfo, error) {
	return s.explorer.ListCatalogs(ctx)
}

func (s *ExplorerService) ListSchemas(ctx context.Context, catalog string) ([]port.SchemaInfo, error) {
	if catalog == "" {
		return nil, fmt.Errorf("%w: catalog is required", domain.ErrInvalidInput)
	}
	return s.explorer.ListSchemas(ctx, catalog)
}

func (s *ExplorerService) ListTables(ctx context.Context, catalog, schema string) ([]port.TableInfo, error) {
	if catalog == "" || schema == "" {
		return nil, fmt.Errorf("%w: catalog and schema are required", domain.ErrInvalidInput)
	}
	return s.explorer.ListTables(ctx, catalog, schema)
}

func (s *ExplorerService) ListColumns(ctx context.Context, catalog, schema, table string) ([]port.ColumnInfo, error) {
	if catalog == "" || schema == "" || table == "" {
		return nil, fmt.Errorf("%w: catalog, schema and table are required", domain.ErrInvalidInput)
	}
	return s.explorer.ListColumns(ctx, catalog, schema, table)
}

// DescribeTable returns the columns of a table together with join keys
// inferred from its sibling tables in the same schema.
func (s *ExplorerService) DescribeTable(ctx context.Context, catalog, schema, table string) (*port.TableDetail, error) {
	columns, err := s.ListColumns(ctx, catalog, schema, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s.%s: %w", catalog, schema, table, domain.ErrNotFound)
	}
	siblings, err := s.explorer.ListTables(ctx, catalog, schema)
	if err != nil {
		return nil, fmt.Errorf("listing sibling tables: %w", err)
	}

	detail := &port.TableDetail{
		Catalog: catalog,
		Schema:  schema,
		Name:    table,
		Columns: columns,
	}
	tableNames := make([]string, 0, len(siblings))
	for _, t := range siblings {
		tableNames = append(tableNames, t.Name)
		if t.Name == table {
			detail.Comment = t.Comment
		}
	}
	colNames := make([]string, len(columns))
	for i, c := range columns {
		colNames[i] = c.Name
	}
	detail.JoinKeys = domain.InferJoinKeys(table, colNames, tableNames)
	return detail, nil
}

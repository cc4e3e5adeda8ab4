package databricks

import (
	"context"
	"fmt"
	"strings"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
)

// Explorer browses Unity Catalog through system.information_schema.
type Explorer struct {
	exec port.StatementExecutor
}

func NewExplorer(exec port.StatementExecutor) *Explorer {
	return &Explorer{exec: exec}
}

func (e *Explorer) ListCatalogs(ctx context.Context) ([]port.CatalogInfo, error) {
	res, err := settled(ctx, e.exec, queryListCatalogs)
	if err != nil {
		return nil, fmt.Errorf("listing catalogs: %w", err)
	}
	catalogs := make([]port.CatalogInfo, 0, res.RowCount())
	for _, r := range resultRows(res) {
		catalogs = append(catalogs, port.CatalogInfo{
			Name:    r.str("catalog_name", 0),
			Comment: r.str("comment", 1),
		})
	}
	return catalogs, nil
}

func (e *Explorer) ListSchemas(ctx context.Context, catalog string) ([]port.SchemaInfo, error) {
	res, err := settled(ctx, e.exec, fmt.Sprintf(queryListSchemas, quoteLiteral(catalog)))
	if err != nil {
		return nil, fmt.Errorf("listing schemas of %s: %w", catalog, err)
	}
	schemas := make([]port.SchemaInfo, 0, res.RowCount())
	for _, r := range resultRows(res) {
		schemas = append(schemas, port.SchemaInfo{
			Catalog: catalog,
			Name:    r.str("schema_name", 0),
			Comment: r.str("comment", 1),
		})
	}
	return schemas, nil
}

func (e *Explorer) ListTables(ctx context.Context, catalog, schema string) ([]port.TableInfo, error) {
	res, err := settled(ctx, e.exec, fmt.Sprintf(queryListTables, quoteLiteral(catalog), quoteLiteral(schema)))
	if err != nil {
		return nil, fmt.Errorf("listing tables of %s.%s: %w", catalog, schema, err)
	}
	tables := make([]port.TableInfo, 0, res.RowCount())
	for _, r := range resultRows(res) {
		tables = append(tables, port.TableInfo{
			Catalog: catalog,
			Schema:  schema,
			Name:    r.str("table_name", 0),
			Type:    tableType(r.str("table_type", 1)),
			Comment: r.str("comment", 2),
		})
	}
	return tables, nil
}

func (e *Explorer) ListColumns(ctx context.Context, catalog, schema, table string) ([]port.ColumnInfo, error) {
	res, err := settled(ctx, e.exec, fmt.Sprintf(queryListColumns,
		quoteLiteral(catalog), quoteLiteral(schema), quoteLiteral(table)))
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s.%s.%s: %w", catalog, schema, table, err)
	}
	columns := make([]port.ColumnInfo, 0, res.RowCount())
	for _, r := range resultRows(res) {
		columns = append(columns, port.ColumnInfo{
			Name:       r.str("column_name", 0),
			DataType:   r.str("data_type", 1),
			IsNullable: domain.ToBool(r.get("is_nullable", 2)),
			Position:   domain.ToInt(r.get("ordinal_position", 3), 0),
			Comment:    r.str("comment", 4),
		})
	}
	return columns, nil
}

func tableType(t string) string {
	switch strings.ToUpper(t) {
	case "MANAGED", "EXTERNAL", "BASE TABLE", "":
		return "table"
	case "VIEW", "MATERIALIZED_VIEW":
		return "view"
	default:
		return strings.ToLower(t)
	}
}

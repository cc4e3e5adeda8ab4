package port

import (
	"context"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
)

type CatalogInfo struct {
	Name    string `json:"name"`
	Comment string `json:"comment,omitempty"`
}

type SchemaInfo struct {
	Catalog string `json:"catalog"`
	Name    string `json:"name"`
	Comment string `json:"comment,omitempty"`
}

type TableInfo struct {
	Catalog string `json:"catalog"`
	Schema  string `json:"schema"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment,omitempty"`
}

type ColumnInfo struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	IsNullable bool   `json:"is_nullable"`
	Position   int64  `json:"ordinal_position"`
	Comment    string `json:"comment,omitempty"`
}

// TableDetail is a table with its columns and inferred join keys.
type TableDetail struct {
	Catalog  string                    `json:"catalog"`
	Schema   string                    `json:"schema"`
	Name     string                    `json:"name"`
	Comment  string                    `json:"comment,omitempty"`
	Columns  []ColumnInfo              `json:"columns"`
	JoinKeys []domain.JoinKeyCandidate `json:"inferred_join_keys,omitempty"`
}

// CatalogExplorer browses the warehouse's information_schema.
type CatalogExplorer interface {
	ListCatalogs(ctx context.Context) ([]CatalogInfo, error)
	ListSchemas(ctx context.Context, catalog string) ([]SchemaInfo, error)
	ListTables(ctx context.Context, catalog, schema string) ([]TableInfo, error)
	ListColumns(ctx context.Context, catalog, schema, table string) ([]ColumnInfo, error)
}

// TableRef names a table by its three-part identifier.
type TableRef struct {
	Catalog string `json:"catalog"`
	Schema  string `json:"schema"`
	Table   string `json:"table"`
}

// ColumnAnalyzer runs cross-column and temporal analysis queries.
type ColumnAnalyzer interface {
	Correlations(ctx context.Context, table TableRef, numericFields []string) ([]domain.Correlation, error)
	CompositeKeys(ctx context.Context, table TableRef, fields []string) ([]domain.CompositeKey, error)
	ConditionalStats(ctx context.Context, table TableRef, numericField, categoricalField string) ([]domain.ConditionalStat, error)
	Temporal(ctx context.Context, table TableRef, column string) (*domain.TemporalProfile, error)
}

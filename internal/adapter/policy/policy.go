package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// Policy is the operator's overlay on the warehouse catalog: descriptions
// for tables and columns, and the masks applied to values read from them.
type Policy struct {
	Context ContextConfig `yaml:"context"`
}

// ContextConfig is keyed by catalog.schema.table.
type ContextConfig struct {
	Tables map[string]TableContext `yaml:"tables"`
}

// Table looks up the entry for one table.
func (c ContextConfig) Table(catalog, schema, table string) (TableContext, bool) {
	tc, ok := c.Tables[TableKey(catalog, schema, table)]
	return tc, ok
}

type TableContext struct {
	Description string                   `yaml:"description"`
	Columns     map[string]ColumnContext `yaml:"columns"`
}

// MaskedColumns returns the names of columns carrying a mask, sorted.
func (tc TableContext) MaskedColumns() []string {
	var names []string
	for name, cc := range tc.Columns {
		if cc.Mask != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ColumnContext is written either as a bare description string or as a
// mapping with description and mask:
//
//	columns:
//	  mrr: "Monthly recurring revenue in cents"
//	  email:
//	    description: "Customer email"
//	    mask: hash
type ColumnContext struct {
	Description string          `yaml:"description"`
	Mask        domain.MaskType `yaml:"mask,omitempty"`
}

func (cc *ColumnContext) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*cc = ColumnContext{Description: node.Value}
		return nil
	case yaml.MappingNode:
		type fields ColumnContext
		var f fields
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("line %d: decoding column: %w", node.Line, err)
		}
		*cc = ColumnContext(f)
		return nil
	default:
		return fmt.Errorf("line %d: column must be a description or a mapping", node.Line)
	}
}

// TableKey joins a three-part table name into a ContextConfig key.
func TableKey(catalog, schema, table string) string {
	return catalog + "." + schema + "." + table
}

// SplitTableKey is the inverse of TableKey. ok is false unless key has
// exactly three non-empty parts.
func SplitTableKey(key string) (catalog, schema, table string, ok bool) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 {
		return "", "", "", false
	}
	for _, p := range parts {
		if p == "" {
			return "", "", "", false
		}
	}
	return parts[0], parts[1], parts[2], true
}

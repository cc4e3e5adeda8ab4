package domain

import (
	"fmt"
	"slices"
	"strings"
)

// JoinKeyCandidate is a likely join between a column and another table,
// guessed from naming conventions. Lakehouse tables rarely declare foreign
// keys, so this is often the only relationship signal available.
type JoinKeyCandidate struct {
	ColumnName       string `json:"column_name"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
	Confidence       string `json:"confidence"` // "high" or "medium"
	Reason           string `json:"reason"`
}

// keySuffixes maps a column suffix to the column it is assumed to reference.
// An empty target means the referenced table uses the same column name.
var keySuffixes = []struct {
	suffix string
	target string
}{
	{"_id", "id"},
	{"_key", ""},
	{"_sk", ""},
}

// MatchJoinKey checks whether columnName follows a *_id, *_key or *_sk
// convention and names a table in tableNames. Plural and exact table names
// are high confidence; "es" plurals and dim_ prefixes are medium.
func MatchJoinKey(columnName string, tableNames map[string]bool) (JoinKeyCandidate, bool) {
	lower := strings.ToLower(columnName)
	for _, ks := range keySuffixes {
		if !strings.HasSuffix(lower, ks.suffix) {
			continue
		}
		prefix := strings.TrimSuffix(lower, ks.suffix)
		if prefix == "" {
			return JoinKeyCandidate{}, false
		}

		candidates := []struct {
			table      string
			confidence string
		}{
			{prefix + "s", "high"},
			{prefix, "high"},
			{prefix + "es", "medium"},
			{"dim_" + prefix, "medium"},
		}
		for _, c := range candidates {
			if !tableNames[c.table] {
				continue
			}
			target := ks.target
			if target == "" {
				target = columnName
			}
			return JoinKeyCandidate{
				ColumnName:       columnName,
				ReferencedTable:  c.table,
				ReferencedColumn: target,
				Confidence:       c.confidence,
				Reason:           fmt.Sprintf("column %q matches naming pattern for table %q", columnName, c.table),
			}, true
		}
		return JoinKeyCandidate{}, false
	}
	return JoinKeyCandidate{}, false
}

// InferJoinKeys runs MatchJoinKey over every column of table. A column never
// references its own table.
func InferJoinKeys(table string, columns []string, tableNames []string) []JoinKeyCandidate {
	known := make(map[string]bool, len(tableNames))
	for _, t := range tableNames {
		if !strings.EqualFold(t, table) {
			known[strings.ToLower(t)] = true
		}
	}

	var out []JoinKeyCandidate
	for _, col := range columns {
		if c, ok := MatchJoinKey(col, known); ok {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b JoinKeyCandidate) int {
		return strings.Compare(a.ColumnName, b.ColumnName)
	})
	return out
}

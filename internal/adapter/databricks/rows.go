package databricks

import (
	"context"
	"strings"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
)

// quoteIdent wraps a Spark SQL identifier in backticks.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func quoteTable(t port.TableRef) string {
	return quoteIdent(t.Catalog) + "." + quoteIdent(t.Schema) + "." + quoteIdent(t.Table)
}

// quoteLiteral renders s as a single-quoted string literal.
func quoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

// row reads a result row either by column name or by position, whichever
// form the warehouse returned.
type row struct {
	named      map[string]any
	positional []any
}

func (r row) get(name string, pos int) any {
	if r.named != nil {
		return r.named[name]
	}
	if pos < len(r.positional) {
		return r.positional[pos]
	}
	return nil
}

func (r row) str(name string, pos int) string {
	v := r.get(name, pos)
	if v == nil {
		return ""
	}
	return domain.ToString(v)
}

func resultRows(res *domain.StatementResult) []row {
	if res == nil {
		return nil
	}
	if res.IsPositional() {
		out := make([]row, len(res.Positional))
		for i, p := range res.Positional {
			out[i] = row{positional: p}
		}
		return out
	}
	out := make([]row, len(res.Rows))
	for i, m := range res.Rows {
		out[i] = row{named: m}
	}
	return out
}

func firstRow(res *domain.StatementResult) (row, bool) {
	rows := resultRows(res)
	if len(rows) == 0 {
		return row{}, false
	}
	return rows[0], true
}

// settled runs sql and reports a statement still pending after the poll
// budget as an ExecutionError.
func settled(ctx context.Context, exec port.StatementExecutor, sql string) (*domain.StatementResult, error) {
	res, err := exec.Execute(ctx, sql)
	if err != nil {
		return nil, err
	}
	if res.State != domain.StateSucceeded {
		return nil, &domain.ExecutionError{StatementID: res.StatementID, State: res.State}
	}
	return res, nil
}

package databricks

import (
	"context"
	"strings"
	"testing"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedExecutor answers each statement with the first result whose key is
// a substring of the SQL.
type scriptedExecutor struct {
	answers []scripted
	sqls    []string
}

type scripted struct {
	match string
	res   *domain.StatementResult
	err   error
}

func (s *scriptedExecutor) Execute(_ context.Context, sql string) (*domain.StatementResult, error) {
	s.sqls = append(s.sqls, sql)
	for _, a := range s.answers {
		if strings.Contains(sql, a.match) {
			return a.res, a.err
		}
	}
	return &domain.StatementResult{State: domain.StateSucceeded, Positional: [][]any{}}, nil
}

func named(rows ...map[string]any) *domain.StatementResult {
	cols := []domain.ResultColumn{}
	if len(rows) > 0 {
		for k := range rows[0] {
			cols = append(cols, domain.ResultColumn{Name: k})
		}
	}
	return &domain.StatementResult{State: domain.StateSucceeded, Columns: cols, Rows: rows}
}

func positional(rows ...[]any) *domain.StatementResult {
	return &domain.StatementResult{State: domain.StateSucceeded, Positional: rows}
}

var orders = port.TableRef{Catalog: "main", Schema: "sales", Table: "orders"}

func TestAnalyzer_Correlations(t *testing.T) {
	exec := &scriptedExecutor{answers: []scripted{
		{match: "`qty` AS DOUBLE), CAST(`price`", res: named(map[string]any{"correlation": "0.85"})},
		{match: "`qty` AS DOUBLE), CAST(`discount`", res: positional([]any{nil})},
		{match: "`price` AS DOUBLE), CAST(`discount`", res: positional([]any{"-0.45"})},
	}}
	got, err := NewAnalyzer(exec).Correlations(context.Background(), orders, []string{"qty", "price", "discount"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, domain.Correlation{Field1: "qty", Field2: "price", Coefficient: 0.85, Strength: domain.CorrelationVeryStrong}, got[0])
	assert.Equal(t, 0.0, got[1].Coefficient)
	assert.Equal(t, domain.CorrelationVeryWeak, got[1].Strength)
	assert.Equal(t, domain.CorrelationModerate, got[2].Strength)
	assert.Contains(t, exec.sqls[0], "FROM `main`.`sales`.`orders`")
}

func TestAnalyzer_CorrelationsNeedTwoFields(t *testing.T) {
	exec := &scriptedExecutor{}
	got, err := NewAnalyzer(exec).Correlations(context.Background(), orders, []string{"qty"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, exec.sqls)
}

func TestAnalyzer_CompositeKeys(t *testing.T) {
	exec := &scriptedExecutor{answers: []scripted{
		{match: "COUNT(*) AS total", res: positional([]any{"1000"})},
		{match: "DISTINCT `a`, `b`", res: positional([]any{"1000"})},
		{match: "DISTINCT `a`, `c`", res: positional([]any{"960"})},
		{match: "DISTINCT `b`, `c`", res: positional([]any{"10"})},
	}}
	got, err := NewAnalyzer(exec).CompositeKeys(context.Background(), orders, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"a", "b"}, got[0].Columns)
	assert.True(t, got[0].IsPotentialKey)
	assert.Equal(t, 96.0, got[1].UniquenessPct)
	assert.False(t, got[1].IsPotentialKey)
}

func TestAnalyzer_ConditionalStats(t *testing.T) {
	exec := &scriptedExecutor{answers: []scripted{
		{match: "PERCENTILE", res: positional(
			[]any{"EU", "10", "5.5", "1.2", "1", "9", "5"},
			[]any{nil, "3", nil, nil, nil, nil, nil},
		)},
	}}
	got, err := NewAnalyzer(exec).ConditionalStats(context.Background(), orders, "amount", "region")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.ConditionalStat{Category: "EU", Count: 10, Mean: 5.5, Stddev: 1.2, Min: 1, Max: 9, Median: 5}, got[0])
	assert.Equal(t, int64(3), got[1].Count)
	assert.Contains(t, exec.sqls[0], "GROUP BY `region`")
}

func TestAnalyzer_Temporal(t *testing.T) {
	exec := &scriptedExecutor{answers: []scripted{
		{match: "DAYOFWEEK", res: named(
			map[string]any{"day_name": "Sunday", "count": "4"},
			map[string]any{"day_name": "Monday", "count": "7"},
		)},
		{match: "HOUR(", res: positional([]any{"0", "2"}, []any{"13", "9"})},
	}}
	got, err := NewAnalyzer(exec).Temporal(context.Background(), orders, "created_at")
	require.NoError(t, err)
	assert.Equal(t, []domain.DayCount{{Day: "Sunday", Count: 4}, {Day: "Monday", Count: 7}}, got.DayOfWeek)
	assert.Equal(t, []domain.HourCount{{Hour: 0, Count: 2}, {Hour: 13, Count: 9}}, got.HourOfDay)
}

func TestAnalyzer_PendingStatementIsError(t *testing.T) {
	exec := &scriptedExecutor{answers: []scripted{
		{match: "DAYOFWEEK", res: &domain.StatementResult{StatementID: "s9", State: domain.StatePending}},
	}}
	_, err := NewAnalyzer(exec).Temporal(context.Background(), orders, "created_at")
	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, domain.StatePending, execErr.State)
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, "`we``ird`", quoteIdent("we`ird"))
	assert.Equal(t, `'it\'s'`, quoteLiteral("it's"))
	assert.Equal(t, `'a\\b'`, quoteLiteral(`a\b`))
	assert.Equal(t, "`c`.`s`.`t`", quoteTable(port.TableRef{Catalog: "c", Schema: "s", Table: "t"}))
}

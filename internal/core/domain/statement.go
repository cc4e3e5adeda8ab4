package domain

import "strings"

// StatementState is the lifecycle state of one remote statement.
type StatementState string

const (
	StatePending   StatementState = "PENDING"
	StateSucceeded StatementState = "SUCCEEDED"
	StateFailed    StatementState = "FAILED"
	StateCanceled  StatementState = "CANCELED"
	// StateTimedOut is only produced when strict poll timeouts are enabled.
	StateTimedOut StatementState = "TIMED_OUT"
)

// ParseStatementState maps an upstream status string. RUNNING, PENDING and
// anything unrecognised are Pending; CLOSED means the result was already
// consumed and counts as Succeeded.
func ParseStatementState(s string) StatementState {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUCCEEDED", "CLOSED":
		return StateSucceeded
	case "FAILED":
		return StateFailed
	case "CANCELED", "CANCELLED":
		return StateCanceled
	default:
		return StatePending
	}
}

// IsTerminal reports whether no further transition can happen.
func (s StatementState) IsTerminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCanceled, StateTimedOut:
		return true
	}
	return false
}

// ResultColumn is one entry of the upstream manifest schema.
type ResultColumn struct {
	Name     string `json:"name"`
	TypeText string `json:"type_text,omitempty"`
}

// StatementResult is the outcome of one remote execution. When Columns is
// non-empty every row is in Rows keyed by column name; otherwise rows are in
// Positional. The two are never mixed.
type StatementResult struct {
	StatementID string           `json:"statement_id"`
	State       StatementState   `json:"state"`
	Columns     []ResultColumn   `json:"columns,omitempty"`
	Rows        []map[string]any `json:"rows,omitempty"`
	Positional  [][]any          `json:"positional,omitempty"`
	// Polls is the number of status checks made after submission.
	Polls int `json:"polls"`
}

// IsPositional reports whether the rows carry no column names.
func (r *StatementResult) IsPositional() bool {
	return len(r.Columns) == 0
}

// RowCount returns the number of rows in whichever representation is used.
func (r *StatementResult) RowCount() int {
	if r.IsPositional() {
		return len(r.Positional)
	}
	return len(r.Rows)
}

// BindRows zips column names onto positional rows. Values missing from a
// short row are nil; extra trailing values are dropped.
func BindRows(columns []ResultColumn, rows [][]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(row) {
				m[col.Name] = row[i]
			} else {
				m[col.Name] = nil
			}
		}
		out = append(out, m)
	}
	return out
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a snapshot id is unknown to the repository.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for caller mistakes such as an empty snapshot name.
	ErrInvalidInput = errors.New("invalid input")
)

// TransportError reports that the warehouse endpoint was unreachable or
// answered a submit/status call with a non-2xx status. It says nothing about
// the SQL itself.
type TransportError struct {
	Op         string // "submit" or "status"
	StatusCode int    // 0 when the request never got a response
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("warehouse %s: http %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("warehouse %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatementErrorPayload is the upstream status.error object, carried verbatim.
type StatementErrorPayload struct {
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ExecutionError reports a statement that reached a terminal state other than
// Succeeded (or TimedOut when strict poll timeouts are enabled).
type ExecutionError struct {
	StatementID string
	State       StatementState
	Payload     *StatementErrorPayload
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("statement %s finished in state %s", e.StatementID, e.State)
	if e.Payload != nil && e.Payload.Message != "" {
		msg += ": " + e.Payload.Message
	}
	return msg
}

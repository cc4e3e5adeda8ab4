package port

import (
	"context"
	"time"
)

// StatementOutcome summarizes one executed statement for metrics.
type StatementOutcome struct {
	// State is the last observed state; empty if the submission itself failed.
	State    string
	Duration time.Duration
	Polls    int
	Failed   bool
}

// Instrumentation records application-level metrics.
type Instrumentation interface {
	RecordStatement(ctx context.Context, outcome StatementOutcome)
	RecordToolCall(ctx context.Context, tool string, d time.Duration, failed bool)
}

// NoopInstrumentation discards all metrics.
type NoopInstrumentation struct{}

func (NoopInstrumentation) RecordStatement(context.Context, StatementOutcome)           {}
func (NoopInstrumentation) RecordToolCall(context.Context, string, time.Duration, bool) {}

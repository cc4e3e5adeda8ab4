package databricks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
)

// ExecutorConfig bounds the poll loop.
type ExecutorConfig struct {
	PollInterval time.Duration
	MaxPolls     int
	// StrictPollTimeout turns an exhausted poll budget into a TimedOut
	// ExecutionError instead of returning the last pending state.
	StrictPollTimeout bool
}

// DefaultExecutorConfig polls once a second for up to a minute.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{PollInterval: time.Second, MaxPolls: 60}
}

// Executor submits statements and polls them until they settle.
type Executor struct {
	client *Client
	cfg    ExecutorConfig
	logger *slog.Logger
}

func NewExecutor(client *Client, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if cfg.MaxPolls < 0 {
		cfg.MaxPolls = 0
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{client: client, cfg: cfg, logger: logger}
}

// Execute submits sql and waits for a terminal state. The first status check
// happens right after submission; each later one waits PollInterval first.
func (e *Executor) Execute(ctx context.Context, sql string) (*domain.StatementResult, error) {
	resp, err := e.client.Submit(ctx, sql)
	if err != nil {
		return nil, err
	}
	id := resp.StatementID
	state := domain.ParseStatementState(resp.Status.State)

	polls := 0
	for !state.IsTerminal() && polls < e.cfg.MaxPolls {
		if polls > 0 {
			if err := sleep(ctx, e.cfg.PollInterval); err != nil {
				return nil, fmt.Errorf("polling statement %s: %w", id, err)
			}
		}
		polls++
		resp, err = e.client.Status(ctx, id)
		if err != nil {
			return nil, err
		}
		state = domain.ParseStatementState(resp.Status.State)
		e.logger.DebugContext(ctx, "statement polled",
			slog.String("statement_id", id),
			slog.String("state", string(state)),
			slog.Int("poll", polls),
		)
	}

	switch state {
	case domain.StateSucceeded:
		return buildResult(id, state, polls, resp), nil
	case domain.StatePending:
		if e.cfg.StrictPollTimeout {
			return nil, &domain.ExecutionError{StatementID: id, State: domain.StateTimedOut}
		}
		e.logger.WarnContext(ctx, "statement still pending after poll budget",
			slog.String("statement_id", id),
			slog.Int("polls", polls),
		)
		return buildResult(id, state, polls, resp), nil
	default:
		return nil, &domain.ExecutionError{StatementID: id, State: state, Payload: resp.Status.Error}
	}
}

func buildResult(id string, state domain.StatementState, polls int, resp *statementResponse) *domain.StatementResult {
	res := &domain.StatementResult{StatementID: id, State: state, Polls: polls}
	data := resp.dataArray()
	if cols := resp.columns(); len(cols) > 0 {
		res.Columns = cols
		res.Rows = domain.BindRows(cols, data)
		return res
	}
	res.Positional = data
	return res
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

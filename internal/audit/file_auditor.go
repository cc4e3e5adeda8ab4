package audit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/guillermoBallester/lakeprobe/internal/core/port"
)

// record is one NDJSON line of the statement audit log.
type record struct {
	Time        string `json:"ts"`
	Tool        string `json:"tool,omitempty"`
	SQL         string `json:"sql"`
	StatementID string `json:"statement_id,omitempty"`
	State       string `json:"state,omitempty"`
	Rows        int    `json:"rows"`
	Polls       int    `json:"polls"`
	DurationMS  int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}

// FileAuditor appends one JSON line per statement to a file. Each line is
// a single Write on an O_APPEND descriptor, so several processes can share
// one log without interleaving.
type FileAuditor struct {
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	file    *os.File
	dropped int
}

// NewFileAuditor opens path for appending, creating it if needed. A nil
// logger discards write failures.
func NewFileAuditor(path string, logger *slog.Logger) (*FileAuditor, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &FileAuditor{logger: logger, now: time.Now, file: f}, nil
}

func (a *FileAuditor) toRecord(e port.AuditEntry) record {
	at := e.At
	if at.IsZero() {
		at = a.now()
	}
	r := record{
		Time:        at.UTC().Format(time.RFC3339Nano),
		Tool:        e.Tool,
		SQL:         e.SQL,
		StatementID: e.StatementID,
		State:       string(e.State),
		Rows:        e.Rows,
		Polls:       e.Polls,
		DurationMS:  e.Duration.Milliseconds(),
	}
	if e.Err != nil {
		r.Error = e.Err.Error()
	}
	return r
}

// Record writes e. Failures never reach the caller; the first one is logged
// and the rest are only counted.
func (a *FileAuditor) Record(ctx context.Context, e port.AuditEntry) {
	line, err := gojson.Marshal(a.toRecord(e))
	line = append(line, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case err != nil:
	case a.file == nil:
		err = os.ErrClosed
	default:
		_, err = a.file.Write(line)
	}
	if err == nil {
		return
	}
	a.dropped++
	if a.dropped == 1 {
		a.logger.WarnContext(ctx, "audit write failed",
			slog.String("tool", e.Tool),
			slog.String("error", err.Error()),
		)
	}
}

// Dropped reports how many entries could not be written.
func (a *FileAuditor) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Close closes the file. Closing twice is a no-op.
func (a *FileAuditor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	if a.dropped > 0 {
		a.logger.Warn("audit entries dropped", slog.Int("count", a.dropped))
	}
	return err
}

package port

import (
	"context"
	"time"

	"github.com/guillermoBallester/lakeprobe/internal/core/domain"
)

// AuditEntry is one statement as written to the audit log. StatementID and
// State stay empty when the warehouse never accepted the submission.
type AuditEntry struct {
	At          time.Time
	Tool        string
	SQL         string
	StatementID string
	State       domain.StatementState
	Rows        int
	Polls       int
	Duration    time.Duration
	Err         error
}

// QueryAuditor records statement audit events. Record must not block the
// caller on slow sinks for longer than a single write.
type QueryAuditor interface {
	Record(ctx context.Context, entry AuditEntry)
	Close() error
}

// NoopAuditor discards all audit entries.
type NoopAuditor struct{}

func (NoopAuditor) Record(context.Context, AuditEntry) {}
func (NoopAuditor) Close() error                       { return nil }

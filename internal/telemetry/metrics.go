package telemetry

import (
	"context"
	"time"

	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/guillermoBallester/lakeprobe"

var _ port.Instrumentation = (*Instruments)(nil)

// Instruments holds the statement and tool metric instruments.
type Instruments struct {
	StatementCount    metric.Int64Counter
	StatementDuration metric.Float64Histogram
	StatementErrors   metric.Int64Counter
	StatementPolls    metric.Int64Histogram
	ToolDuration      metric.Float64Histogram
}

// NewInstruments creates metric instruments from the global MeterProvider.
func NewInstruments() *Instruments {
	return newInstrumentsFromMeter(otel.Meter(meterName))
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	return newInstrumentsFromMeter(noop.NewMeterProvider().Meter(meterName))
}

// pollBuckets follow the executor's bounded poll budget rather than the
// SDK's latency-shaped defaults.
var pollBuckets = []float64{0, 1, 2, 3, 5, 8, 13, 21, 34, 55}

func newInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// Instrument constructors fall back to noop instruments on error.
	inst := &Instruments{}
	inst.StatementCount, _ = meter.Int64Counter("lakeprobe.statement.count",
		metric.WithDescription("Statements executed, by last observed state"),
	)
	inst.StatementDuration, _ = meter.Float64Histogram("lakeprobe.statement.duration",
		metric.WithDescription("Time from submission to the last status response"),
		metric.WithUnit("ms"),
	)
	inst.StatementErrors, _ = meter.Int64Counter("lakeprobe.statement.errors",
		metric.WithDescription("Statements that failed, were canceled or never reached the warehouse"),
	)
	inst.StatementPolls, _ = meter.Int64Histogram("lakeprobe.statement.polls",
		metric.WithDescription("Status requests issued per successful statement"),
		metric.WithExplicitBucketBoundaries(pollBuckets...),
	)
	inst.ToolDuration, _ = meter.Float64Histogram("lakeprobe.tool.duration",
		metric.WithDescription("MCP tool call duration"),
		metric.WithUnit("ms"),
	)
	return inst
}

// RecordStatement records duration for every statement. The state counter is
// skipped for submissions that never got a state back, and polls are only
// recorded for statements that produced a result.
func (i *Instruments) RecordStatement(ctx context.Context, o port.StatementOutcome) {
	i.StatementDuration.Record(ctx, millis(o.Duration))
	if o.State != "" {
		i.StatementCount.Add(ctx, 1, metric.WithAttributes(attribute.String("state", o.State)))
	}
	if o.Failed {
		i.StatementErrors.Add(ctx, 1)
		return
	}
	i.StatementPolls.Record(ctx, int64(o.Polls))
}

func (i *Instruments) RecordToolCall(ctx context.Context, tool string, d time.Duration, failed bool) {
	i.ToolDuration.Record(ctx, millis(d), metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.Bool("error", failed),
	))
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

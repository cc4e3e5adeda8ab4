package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/guillermoBallester/lakeprobe/internal/core/port"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// inflight is a tool call between its before and after hooks.
type inflight struct {
	start time.Time
	span  trace.Span
}

// toolObserver logs, traces and measures tool calls. Tool results flagged
// IsError and protocol-level failures both count as failed calls.
type toolObserver struct {
	logger *slog.Logger
	tracer trace.Tracer
	inst   port.Instrumentation
	calls  sync.Map // request id -> *inflight
	now    func() time.Time
}

// ToolCallHooks returns hooks that log every tool call, wrap it in an
// mcp.tool.call span and record the tool duration metric. tracer and inst
// may be nil.
func ToolCallHooks(logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.Hooks {
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	o := &toolObserver{logger: logger, tracer: tracer, inst: inst, now: time.Now}

	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(o.before)
	hooks.AddAfterCallTool(o.after)
	hooks.AddOnError(o.onError)
	return hooks
}

func (o *toolObserver) before(ctx context.Context, id any, req *mcp.CallToolRequest) {
	call := &inflight{start: o.now()}
	if o.tracer != nil {
		attrs := []attribute.KeyValue{attribute.String("mcp.tool", req.Params.Name)}
		if session := server.ClientSessionFromContext(ctx); session != nil {
			attrs = append(attrs, attribute.String("mcp.session.id", session.SessionID()))
		}
		_, call.span = o.tracer.Start(ctx, "mcp.tool.call", trace.WithAttributes(attrs...))
	}
	o.calls.Store(id, call)
}

// finish removes the call and returns how long it ran. Calls whose before
// hook never ran report zero duration and no span.
func (o *toolObserver) finish(id any) (time.Duration, trace.Span) {
	v, ok := o.calls.LoadAndDelete(id)
	if !ok {
		return 0, nil
	}
	call := v.(*inflight)
	return o.now().Sub(call.start), call.span
}

func (o *toolObserver) after(ctx context.Context, id any, req *mcp.CallToolRequest, result any) {
	d, span := o.finish(id)

	var toolErr error
	if r, ok := result.(*mcp.CallToolResult); ok && r.IsError {
		toolErr = errors.New(resultText(r))
	}
	o.complete(ctx, req.Params.Name, "tools/call", d, span, toolErr)
}

func (o *toolObserver) onError(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
	req, ok := message.(*mcp.CallToolRequest)
	if method != mcp.MethodToolsCall || !ok {
		return
	}
	d, span := o.finish(id)
	o.complete(ctx, req.Params.Name, string(method), d, span, err)
}

func (o *toolObserver) complete(ctx context.Context, tool, method string, d time.Duration, span trace.Span, err error) {
	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("rpc.method", method),
		slog.String("mcp.tool", tool),
		slog.Duration("duration", d),
		slog.Bool("error", err != nil),
	}
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error.message", err.Error()))
	}
	o.logger.LogAttrs(ctx, level, "tool call", attrs...)
	o.inst.RecordToolCall(ctx, tool, d, err != nil)

	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func resultText(r *mcp.CallToolResult) string {
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return "tool returned error"
}

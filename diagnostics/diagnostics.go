// Package diagnostics implements the tracing diagnostic listener from spec
// §4.7: an append-only queue of traced diagnostics, safe for concurrent
// reports from multiple compiler worker threads, with an immutable
// point-in-time snapshot.
package diagnostics

import (
	"bytes"
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Kind classifies a diagnostic the way the compiler provider reports it.
type Kind int

const (
	KindOther Kind = iota
	KindNote
	KindWarning
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNote:
		return "note"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return "other"
	}
}

// KindFromString is String's inverse, for providers (such as
// jct/rpcprovider) that cross a boundary where Kind can only travel as
// text. Unrecognised strings map to KindOther.
func KindFromString(s string) Kind {
	switch s {
	case "note":
		return KindNote
	case "warning":
		return KindWarning
	case "error":
		return KindError
	default:
		return KindOther
	}
}

// NoPosition is the sentinel spec §3 requires for "no position available".
const NoPosition int64 = -1

// Diagnostic is the raw event a compiler provider reports, before this
// listener attaches tracing metadata.
type Diagnostic struct {
	Kind                         Kind
	Code                         string
	SourceURI                    string
	Position, Start, End         int64
	Line, Column                 int64
	Message                      func(locale string) string
}

// TracedDiagnostic is a Diagnostic enriched with the capture-time context
// spec §4.7 mandates: timestamp, reporting thread identity, and a bounded
// stack trace.
type TracedDiagnostic struct {
	Diagnostic
	Timestamp       time.Time
	GoroutineID     int64
	GoroutineFrames []Frame
}

// Frame is one captured stack frame, bounded in depth at capture time.
type Frame struct {
	Function string
	File     string
	Line     int
}

const maxCapturedFrames = 32

// Listener is the tracing diagnostic listener: a monotonic, append-only
// queue of traced diagnostics, safe for concurrent Report calls (spec §5's
// "multi-producer, single-consumer-at-end" resource policy). A plain
// mutex-guarded slice is used rather than a lock-free structure or a
// channel: the append/snapshot split doesn't fit a channel's consume-once
// semantics, and the queue is never a throughput bottleneck relative to
// actual compilation work.
type Listener struct {
	tracer trace.Tracer

	mu    sync.Mutex
	queue []TracedDiagnostic
}

// New constructs an empty listener. tracerName names the OpenTelemetry
// tracer the listener holds; Report starts no spans of its own, but records
// each diagnostic as an event on the span already carried by its context.
func New(tracerName string) *Listener {
	return &Listener{tracer: otel.Tracer(tracerName)}
}

// Report is the compiler provider callback: it captures the current time,
// goroutine stack, constructs a traced record, enqueues it, and emits one
// log line and one OpenTelemetry span event at a severity derived from
// d.Kind.
func (l *Listener) Report(ctx context.Context, d Diagnostic) {
	traced := TracedDiagnostic{
		Diagnostic:      d,
		Timestamp:       time.Now(),
		GoroutineID:     currentGoroutineID(),
		GoroutineFrames: captureFrames(),
	}

	l.mu.Lock()
	l.queue = append(l.queue, traced)
	l.mu.Unlock()

	l.emit(ctx, traced)
}

func (l *Listener) emit(ctx context.Context, d TracedDiagnostic) {
	attrs := []attribute.KeyValue{
		attribute.String("diagnostic.kind", d.Kind.String()),
		attribute.String("diagnostic.code", d.Code),
		attribute.String("diagnostic.source_uri", d.SourceURI),
	}

	span := trace.SpanFromContext(ctx)
	span.AddEvent("diagnostic", trace.WithAttributes(attrs...))
	if d.Kind == KindError {
		span.SetStatus(codes.Error, d.Code)
	}

	message := d.Code
	if d.Message != nil {
		message = d.Message("")
	}
	switch d.Kind {
	case KindError:
		slog.ErrorContext(ctx, "diagnostic reported", "code", d.Code, "message", message, "source", d.SourceURI)
	case KindWarning:
		slog.WarnContext(ctx, "diagnostic reported", "code", d.Code, "message", message, "source", d.SourceURI)
	case KindNote:
		slog.InfoContext(ctx, "diagnostic reported", "code", d.Code, "message", message, "source", d.SourceURI)
	default:
		slog.DebugContext(ctx, "diagnostic reported", "code", d.Code, "message", message, "source", d.SourceURI)
	}
}

// Snapshot returns an immutable copy of the queue in insertion order.
func (l *Listener) Snapshot() []TracedDiagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]TracedDiagnostic, len(l.queue))
	copy(out, l.queue)
	return out
}

// Len reports the number of diagnostics reported so far.
func (l *Listener) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// currentGoroutineID parses the "goroutine N [running]:" header runtime.Stack
// writes, giving each diagnostic a stable per-worker identity without
// needing providers to pass one through explicitly. Returns 0 if the header
// doesn't parse, which should not happen on any Go runtime this module
// targets.
func currentGoroutineID() int64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	if i := bytes.IndexByte(buf, ' '); i >= 0 {
		buf = buf[:i]
	}
	id, err := strconv.ParseInt(string(buf), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func captureFrames() []Frame {
	pcs := make([]uintptr, maxCapturedFrames)
	n := runtime.Callers(3, pcs)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs[:n])
	out := make([]Frame, 0, n)
	for {
		f, more := frames.Next()
		out = append(out, Frame{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return out
}

// Package tracing times the stages of an evaluation run. Spans propagate
// through contexts, form a parent-child tree and are logged via slog.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

// Span is one timed stage of a trace.
type Span struct {
	Name      string
	TraceID   string
	StartTime time.Time
	Duration  time.Duration
	Children  []*Span
	Attrs     map[string]any

	mu    sync.Mutex
	ended bool
	now   func() time.Time
}

// StartSpan creates a root span and stores it in the returned context.
func StartSpan(ctx context.Context, name string, traceID string) (context.Context, *Span) {
	return startSpan(ctx, name, traceID, time.Now)
}

// StartSpanWithClock is StartSpan with an explicit time source, inherited by
// every child span.
func StartSpanWithClock(ctx context.Context, name string, traceID string, now func() time.Time) (context.Context, *Span) {
	return startSpan(ctx, name, traceID, now)
}

func startSpan(ctx context.Context, name string, traceID string, now func() time.Time) (context.Context, *Span) {
	span := &Span{
		Name:      name,
		TraceID:   traceID,
		StartTime: now(),
		Attrs:     make(map[string]any),
		now:       now,
	}
	return context.WithValue(ctx, contextKey{}, span), span
}

// StartChildSpan creates a child of the span in ctx. Without a parent the
// child is a detached root.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	parent := SpanFromContext(ctx)
	now := time.Now
	if parent != nil {
		now = parent.now
	}
	child := &Span{
		Name:      name,
		StartTime: now(),
		Attrs:     make(map[string]any),
		now:       now,
	}
	if parent != nil {
		child.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.Children = append(parent.Children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, child), child
}

// End fixes the span's duration. Only the first call counts.
func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.Duration = s.now().Sub(s.StartTime)
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.Attrs[key] = value
	s.mu.Unlock()
}

// SpanFromContext extracts the current Span from ctx, or nil if none.
func SpanFromContext(ctx context.Context) *Span {
	if span, ok := ctx.Value(contextKey{}).(*Span); ok {
		return span
	}
	return nil
}

// Durations flattens the ended direct children into name -> duration.
func (s *Span) Durations() map[string]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Duration, len(s.Children))
	for _, c := range s.Children {
		c.mu.Lock()
		if c.ended {
			out[c.Name] += c.Duration
		}
		c.mu.Unlock()
	}
	return out
}

// Log writes the span tree to logger at debug level.
func (s *Span) Log(logger *slog.Logger) {
	s.logRecursive(logger, 0)
}

func (s *Span) logRecursive(logger *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := []any{
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_ms", s.Duration.Milliseconds(),
		"depth", depth,
	}
	for k, v := range s.Attrs {
		attrs = append(attrs, k, v)
	}
	children := append([]*Span(nil), s.Children...)
	s.mu.Unlock()

	logger.Debug("span", attrs...)
	for _, child := range children {
		child.logRecursive(logger, depth+1)
	}
}

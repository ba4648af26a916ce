package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSpanTree(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	ctx, root := StartSpanWithClock(context.Background(), "evaluate", "run-1", clock.now)

	_, score := StartChildSpan(ctx, "score")
	clock.advance(3 * time.Second)
	score.End()

	_, ngram := StartChildSpan(ctx, "ngram")
	clock.advance(200 * time.Millisecond)
	ngram.End()
	clock.advance(time.Second)
	ngram.End()

	_, open := StartChildSpan(ctx, "lenstat")
	_ = open
	root.End()

	assert.Equal(t, "run-1", score.TraceID)
	assert.Equal(t, 3*time.Second+200*time.Millisecond+time.Second, root.Duration)
	assert.Equal(t, map[string]time.Duration{
		"score": 3 * time.Second,
		"ngram": 200 * time.Millisecond,
	}, root.Durations())
	assert.Same(t, root, SpanFromContext(ctx))
}

func TestChildWithoutParent(t *testing.T) {
	_, span := StartChildSpan(context.Background(), "orphan")
	span.End()
	assert.Empty(t, span.TraceID)
	assert.Nil(t, SpanFromContext(context.Background()))
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, root := StartSpan(context.Background(), "evaluate", "run-2")
	_, child := StartChildSpan(ctx, "score")
	child.SetAttr("segments", 3)
	child.End()
	root.End()
	root.Log(logger)

	out := buf.String()
	require.Contains(t, out, "span=evaluate")
	assert.Contains(t, out, "span=score")
	assert.Contains(t, out, "segments=3")
	assert.Contains(t, out, "depth=1")
}

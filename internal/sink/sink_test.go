package sink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/evaluator"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/metrics"
)

type recordingSink struct {
	name string
	err  error
	mu   sync.Mutex
	got  []string
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, r *evaluator.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, r.RunID)
	return s.err
}

func sampleResult() *evaluator.Result {
	return &evaluator.Result{
		RunID:      "6f1c3c52-8f7e-4d8e-9f67-0d5f7a3b2c11",
		SystemID:   "sys-a",
		Hypothesis: "hyp.txt",
		References: []string{"ref.txt"},
		Segments:   3,
		NIST:       [4]float64{3.1, 4.2, 4.4, 4.5},
		BLEU:       [4]float64{0.71, 0.52, 0.38, 0.27},
		Entropy:    [4]float64{5.5, 7.1, 7.6, 7.8},
		Distinct:   [4]float64{0.4, 0.8, 0.9, 1},
		MeanLength: 11.25,
		StartedAt:  time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Duration:   1500 * time.Millisecond,
	}
}

func TestFanoutPublishesToAll(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	m := metrics.New()
	f := NewFanout(m, a, b)

	require.NoError(t, f.Publish(context.Background(), sampleResult()))
	assert.Equal(t, 2, f.Len())
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkPublishTotal.WithLabelValues("a", "ok")))
}

func TestFanoutContinuesPastFailure(t *testing.T) {
	down := errors.New("connection refused")
	a := &recordingSink{name: "a", err: down}
	b := &recordingSink{name: "b"}
	m := metrics.New()

	err := NewFanout(m, a, b).Publish(context.Background(), sampleResult())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSinkUnavailable)
	assert.ErrorIs(t, err, down)
	assert.Contains(t, err.Error(), "a: connection refused")
	assert.Len(t, b.got, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkPublishTotal.WithLabelValues("a", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkPublishTotal.WithLabelValues("b", "ok")))
}

func TestFanoutEmpty(t *testing.T) {
	assert.NoError(t, NewFanout(nil).Publish(context.Background(), sampleResult()))
}

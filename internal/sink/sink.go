// Package sink delivers finished evaluation results to optional downstream
// stores: a PostgreSQL history, a Kafka event stream and a Redis leaderboard.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/evaluator"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/metrics"
)

// Sink receives one result per evaluation run.
type Sink interface {
	Name() string
	Publish(ctx context.Context, result *evaluator.Result) error
}

// Fanout publishes each result to every registered sink concurrently. It
// satisfies evaluator.Publisher.
type Fanout struct {
	sinks   []Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewFanout creates a Fanout over sinks. m may be nil.
func NewFanout(m *metrics.Metrics, sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:   sinks,
		metrics: m,
		logger:  slog.Default().With("component", "sink-fanout"),
	}
}

// Len returns the number of registered sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Publish waits for every sink. A failing sink does not stop the others; all
// failures are combined into one error wrapping errors.ErrSinkUnavailable.
func (f *Fanout) Publish(ctx context.Context, result *evaluator.Result) error {
	var g multierror.Group
	for _, s := range f.sinks {
		s := s
		g.Go(func() error {
			err := s.Publish(ctx, result)
			f.record(s.Name(), err)
			if err != nil {
				f.logger.Warn("sink publish failed", "sink", s.Name(), "run_id", result.RunID, "error", err)
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
			return nil
		})
	}
	if merr := g.Wait(); merr.ErrorOrNil() != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrSinkUnavailable, merr)
	}
	return nil
}

func (f *Fanout) record(name string, err error) {
	if f.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	f.metrics.SinkPublishTotal.WithLabelValues(name, status).Inc()
}

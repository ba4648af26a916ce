// Package evaluator runs a complete evaluation of a hypothesis corpus:
// NIST and BLEU through the external scorer, then n-gram entropy and mean
// length, all over the same line-aligned subset of the corpus.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/lenstat"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/mteval"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/ngram"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/tracing"
)

// Scorer computes cumulative NIST and BLEU for a hypothesis.
type Scorer interface {
	Score(ctx context.Context, refs []string, hyp string, outDir string, nLine int) (mteval.Scores, error)
}

// Publisher hands a finished result to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, result *Result) error
}

// Request describes one evaluation run.
type Request struct {
	References []string
	Hypothesis string
	OutputDir  string
	// NLine caps the number of lines evaluated; 0 evaluates the whole
	// hypothesis.
	NLine    int
	SystemID string
}

func (r Request) validate() error {
	if r.Hypothesis == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "hypothesis path is required")
	}
	if len(r.References) == 0 {
		return apperrors.New(apperrors.ErrInvalidInput, "at least one reference path is required")
	}
	if r.OutputDir == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "output directory is required")
	}
	if r.NLine < 0 {
		return apperrors.Newf(apperrors.ErrInvalidInput, "line cap must not be negative, got %d", r.NLine)
	}
	return nil
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMetrics records run outcomes and scores on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// WithPublisher publishes every successful result to p.
func WithPublisher(p Publisher) Option {
	return func(e *Evaluator) { e.publisher = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// Evaluator orchestrates a single evaluation. It holds no per-run state, so
// every call to Evaluate recomputes all scores.
type Evaluator struct {
	scorer    Scorer
	metrics   *metrics.Metrics
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
}

// New creates an Evaluator around the given scorer.
func New(scorer Scorer, opts ...Option) *Evaluator {
	e := &Evaluator{
		scorer: scorer,
		now:    time.Now,
		logger: slog.Default().With("component", "evaluator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores the hypothesis against the references. The line cap is
// resolved once and shared by the scorer, the entropy and the length
// statistics. If publishing fails the computed result is still returned,
// together with an error wrapping errors.ErrSinkUnavailable.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Result, error) {
	start := e.now()
	res, err := e.evaluate(ctx, req, start)
	if err != nil {
		e.observeFailure(err)
		return nil, err
	}
	res.Duration = e.now().Sub(start)
	e.observeSuccess(res)

	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, res); err != nil {
			return res, fmt.Errorf("publishing result %s: %w", res.RunID, err)
		}
	}
	return res, nil
}

func (e *Evaluator) evaluate(ctx context.Context, req Request, start time.Time) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).With("component", "evaluator")
	ctx, root := tracing.StartSpanWithClock(ctx, "evaluate", runID, e.now)
	defer func() {
		root.End()
		root.Log(log)
	}()

	nLine, err := mteval.ResolveLineCap(req.References, req.Hypothesis, req.NLine)
	if err != nil {
		return nil, err
	}
	log.Info("evaluation started",
		"hypothesis", req.Hypothesis,
		"references", len(req.References),
		"segments", nLine,
	)

	scoreCtx, span := tracing.StartChildSpan(ctx, "score")
	span.SetAttr("segments", nLine)
	scores, err := e.scorer.Score(scoreCtx, req.References, req.Hypothesis, req.OutputDir, nLine)
	span.End()
	if e.metrics != nil {
		e.metrics.ScorerDuration.Observe(span.Duration.Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("computing NIST/BLEU: %w", err)
	}

	_, span = tracing.StartChildSpan(ctx, "ngram")
	counter, err := ngram.CountFile(req.Hypothesis, nLine)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("computing entropy: %w", err)
	}
	span.SetAttr("lines", counter.Lines())

	_, span = tracing.StartChildSpan(ctx, "lenstat")
	meanLen, err := lenstat.MeanLength(req.Hypothesis, nLine)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("computing mean length: %w", err)
	}

	systemID := req.SystemID
	if systemID == "" {
		systemID = "unnamed"
	}
	res := &Result{
		RunID:      runID,
		SystemID:   systemID,
		Hypothesis: req.Hypothesis,
		References: append([]string(nil), req.References...),
		Segments:   nLine,
		NIST:       scores.NIST,
		BLEU:       scores.BLEU,
		Entropy:    counter.Entropy(),
		Distinct:   counter.Distinct(),
		MeanLength: meanLen,
		StartedAt:  start,
		Stages:     root.Durations(),
	}
	log.Info("evaluation finished",
		"bleu4", res.BLEU[3],
		"nist4", res.NIST[3],
		"entropy4", res.Entropy[3],
		"mean_length", res.MeanLength,
	)
	return res, nil
}

func (e *Evaluator) observeSuccess(res *Result) {
	if e.metrics == nil {
		return
	}
	e.metrics.EvaluationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	e.metrics.EvaluationDuration.Observe(res.Duration.Seconds())
	e.metrics.SegmentsScored.Add(float64(res.Segments))
	e.metrics.ObserveScores("nist", res.NIST[:])
	e.metrics.ObserveScores("bleu", res.BLEU[:])
	e.metrics.ObserveScores("entropy", res.Entropy[:])
	e.metrics.ObserveScores("distinct", res.Distinct[:])
	e.metrics.MeanLength.Set(res.MeanLength)
	e.metrics.MarkRunFinished(e.now())
}

func (e *Evaluator) observeFailure(err error) {
	e.logger.Error("evaluation failed", "error", err)
	if e.metrics == nil {
		return
	}
	e.metrics.EvaluationsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
	var scorerErr *mteval.ScorerError
	switch {
	case errors.Is(err, apperrors.ErrTimeout):
		e.metrics.ScorerFailures.WithLabelValues("timeout").Inc()
	case errors.Is(err, apperrors.ErrScorerProtocol):
		e.metrics.ScorerFailures.WithLabelValues("protocol").Inc()
	case errors.As(err, &scorerErr):
		e.metrics.ScorerFailures.WithLabelValues("exec").Inc()
	}
	e.metrics.MarkRunFinished(e.now())
}

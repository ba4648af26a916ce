package sink

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/evaluator"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/kafka"
)

// EventProducer is the subset of kafka.Producer used by EventPublisher.
type EventProducer interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// ResultEvent is the JSON payload emitted for every finished run.
type ResultEvent struct {
	Type       string                    `json:"type"`
	RunID      string                    `json:"run_id"`
	SystemID   string                    `json:"system_id"`
	Segments   int                       `json:"segments"`
	NIST       [evaluator.Orders]float64 `json:"nist"`
	BLEU       [evaluator.Orders]float64 `json:"bleu"`
	Entropy    [evaluator.Orders]float64 `json:"entropy"`
	MeanLength float64                   `json:"mean_length"`
	Timestamp  time.Time                 `json:"timestamp"`
}

// EventTypeCompleted marks a successful evaluation run.
const EventTypeCompleted = "evaluation.completed"

// EventPublisher emits one Kafka event per result, keyed by system ID so that
// runs of one system stay ordered within a partition.
type EventPublisher struct {
	producer EventProducer
}

func NewEventPublisher(producer EventProducer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func (p *EventPublisher) Name() string { return "kafka" }

func (p *EventPublisher) Publish(ctx context.Context, result *evaluator.Result) error {
	return p.producer.Publish(ctx, kafka.Event{
		Key: result.SystemID,
		Value: ResultEvent{
			Type:       EventTypeCompleted,
			RunID:      result.RunID,
			SystemID:   result.SystemID,
			Segments:   result.Segments,
			NIST:       result.NIST,
			BLEU:       result.BLEU,
			Entropy:    result.Entropy,
			MeanLength: result.MeanLength,
			Timestamp:  result.StartedAt.Add(result.Duration).UTC(),
		},
	})
}

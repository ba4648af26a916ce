package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/kafka"
)

type fakeProducer struct {
	events []kafka.Event
	err    error
}

func (p *fakeProducer) Publish(_ context.Context, e kafka.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func TestEventPublisher(t *testing.T) {
	prod := &fakeProducer{}
	p := NewEventPublisher(prod)
	r := sampleResult()

	require.NoError(t, p.Publish(context.Background(), r))
	require.Len(t, prod.events, 1)
	assert.Equal(t, "sys-a", prod.events[0].Key)

	data, err := json.Marshal(prod.events[0].Value)
	require.NoError(t, err)
	var ev ResultEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, EventTypeCompleted, ev.Type)
	assert.Equal(t, r.RunID, ev.RunID)
	assert.Equal(t, r.BLEU, ev.BLEU)
	assert.Equal(t, 11.25, ev.MeanLength)
	assert.True(t, ev.Timestamp.Equal(r.StartedAt.Add(r.Duration)))
}

func TestEventPublisherError(t *testing.T) {
	p := NewEventPublisher(&fakeProducer{err: errors.New("leader not available")})
	assert.Error(t, p.Publish(context.Background(), sampleResult()))
	assert.Equal(t, "kafka", p.Name())
}

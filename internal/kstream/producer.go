// Package kstream wires the catalog and advisor topics to Kafka.
package kstream

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"pcadvisor/internal/model"
)

// Topics.
const (
	TopicIngest    = "catalog.parts.ingest"
	TopicAccepted  = "catalog.parts.accepted"
	TopicEstimates = "advisor.estimates"
)

// MessageWriter is the subset of *kafka.Writer used by publishers.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter constructs a producer for topic. async writers return before
// the broker acknowledges.
func NewWriter(brokers []string, topic string, async bool) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		Async:                  async,
		BatchTimeout:           50 * time.Millisecond,
		BatchBytes:             16 << 20,
		AllowAutoTopicCreation: true,
	}
}

// Publisher publishes JSON events to one topic.
type Publisher struct {
	w MessageWriter
}

func NewPublisher(w MessageWriter) *Publisher {
	return &Publisher{w: w}
}

func (p *Publisher) Close() error { return p.w.Close() }

func (p *Publisher) publish(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

// PublishIngest sends a crawler batch to the ingest topic.
func (p *Publisher) PublishIngest(ctx context.Context, batch model.IngestBatch) error {
	return p.publish(ctx, batch.BatchID, batch)
}

// PublishAccepted announces committed parts, keyed by category so the
// projector sees one category's events in order.
func (p *Publisher) PublishAccepted(ctx context.Context, events []model.PartAccepted) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	now := time.Now()
	for _, evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(evt.Category.Label() + ":" + strconv.FormatInt(evt.PartID, 10)),
			Value: data,
			Time:  now,
		})
	}
	return p.w.WriteMessages(ctx, msgs...)
}

// Record publishes an advisor audit event. It satisfies advisor.Recorder.
func (p *Publisher) Record(ctx context.Context, ev model.EstimateRecorded) error {
	return p.publish(ctx, ev.ID, ev)
}

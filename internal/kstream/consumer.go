package kstream

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"pcadvisor/internal/model"
	"pcadvisor/internal/schemagate"
)

// MessageReader is the subset of *kafka.Reader used by consumers.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// NewReader creates a consumer-group reader with periodic offset commits.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       16 << 20,
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
}

// Run reads messages until ctx ends, passing each value to handle. Handler
// errors are logged and the message is skipped.
func Run(ctx context.Context, r MessageReader, name string, handle func(context.Context, []byte) error) error {
	log.Info().Str("consumer", name).Msg("kstream: consuming")
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := handle(ctx, msg.Value); err != nil {
			log.Error().Err(err).Str("consumer", name).Int64("offset", msg.Offset).Msg("kstream: message skipped")
		}
	}
}

// Gate validates a batch.
type Gate interface {
	Process(ctx context.Context, batch model.IngestBatch) ([]model.Part, []schemagate.Rejection)
}

// RejectionLog persists rejected rows.
type RejectionLog interface {
	Write(ctx context.Context, batchID, source string, rejected []schemagate.Rejection) error
}

// CuratedWriter commits valid rows.
type CuratedWriter interface {
	Write(ctx context.Context, parts []model.Part) ([]model.PartAccepted, error)
}

// AcceptedPublisher announces committed rows.
type AcceptedPublisher interface {
	PublishAccepted(ctx context.Context, events []model.PartAccepted) error
}

// Ingestor is the catalog.parts.ingest pipeline: validate, log rejections,
// commit, announce.
type Ingestor struct {
	Gate      Gate
	Rejects   RejectionLog
	Curated   CuratedWriter
	Announcer AcceptedPublisher
}

// Handle processes one ingest message.
func (in *Ingestor) Handle(ctx context.Context, value []byte) error {
	var batch model.IngestBatch
	if err := json.Unmarshal(value, &batch); err != nil {
		return err
	}

	valid, rejected := in.Gate.Process(ctx, batch)
	if err := in.Rejects.Write(ctx, batch.BatchID, batch.Source, rejected); err != nil {
		log.Error().Err(err).Str("batch_id", batch.BatchID).Msg("kstream: failed to write rejections")
	}

	var committed int
	if len(valid) > 0 {
		events, err := in.Curated.Write(ctx, valid)
		committed = len(events)
		if perr := in.Announcer.PublishAccepted(ctx, events); perr != nil {
			log.Error().Err(perr).Str("batch_id", batch.BatchID).Msg("kstream: failed to publish accepted parts")
		}
		if err != nil {
			return err
		}
	}

	log.Info().Str("batch_id", batch.BatchID).Int("rows", len(batch.Parts)).Int("committed", committed).
		Int("rejected", len(rejected)).Msg("kstream: batch ingested")
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/survey-demand-etl/internal/config"
	"github.com/couchcryptid/survey-demand-etl/internal/domain"
)

// Writer produces one message per demand record to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// Load serializes every record of the batch and publishes them in a single
// WriteMessages call. Records are keyed by submission id so reprocessing a
// survey lands each respondent on the same partition.
func (w *Writer) Load(ctx context.Context, batch domain.Batch) error {
	if len(batch.Records) == 0 {
		return nil
	}

	ids := make([]string, 0, len(batch.Records))
	for id := range batch.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	msgs := make([]kafkago.Message, 0, len(ids))
	for _, id := range ids {
		msg, err := serializeToMessage(batch.Records[id], batch.RunID)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.logger.Debug("records published", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DemandRecord into a Kafka message.
func serializeToMessage(rec domain.DemandRecord, runID string) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize demand record %s: %w", rec.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(rec.Category)},
			{Key: "subtype", Value: []byte(rec.Subtype)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "processed_at", Value: []byte(rec.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}

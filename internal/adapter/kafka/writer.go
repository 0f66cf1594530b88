package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/forest-climate-dashboard/internal/config"
	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
	"github.com/couchcryptid/forest-climate-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// batchSize caps the messages sent per WriteMessages call.
const batchSize = 100

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// SnapshotPublisher publishes the normalized forest table to a Kafka topic,
// one message per country record.
type SnapshotPublisher struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// NewSnapshotPublisher creates a Kafka producer for the configured snapshot topic.
func NewSnapshotPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *SnapshotPublisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSnapshotTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newSnapshotPublisher(w, logger, metrics, clock)
}

func newSnapshotPublisher(w messageWriter, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *SnapshotPublisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SnapshotPublisher{writer: w, logger: logger, metrics: metrics, clock: clock}
}

// Publish serializes and sends every record. All messages of one call carry
// the same published_at header.
func (p *SnapshotPublisher) Publish(ctx context.Context, records []domain.ForestRecord) error {
	if len(records) == 0 {
		return nil
	}
	publishedAt := p.clock.Now().UTC()

	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], publishedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	for start := 0; start < len(msgs); start += batchSize {
		end := min(start+batchSize, len(msgs))
		if err := p.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return fmt.Errorf("publish snapshot: %w", err)
		}
		p.metrics.SnapshotMessages.Add(float64(end - start))
	}

	p.logger.Info("snapshot published", "messages", len(msgs))
	return nil
}

func (p *SnapshotPublisher) Close() error {
	return p.writer.Close()
}

// SnapshotRecord is the JSON value of one snapshot message.
type SnapshotRecord struct {
	ISO3    string  `json:"iso3c"`
	Country string  `json:"country"`
	Trend   float64 `json:"trend"`
}

// serializeToMessage marshals a normalized ForestRecord into a Kafka message.
func serializeToMessage(rec domain.ForestRecord, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(SnapshotRecord{ISO3: rec.ISO3, Country: rec.Country, Trend: rec.Trend})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forest record %s: %w", rec.ISO3, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ISO3),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "country", Value: []byte(rec.Country)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}

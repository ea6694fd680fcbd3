package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces pipeline RunMetrics to a Kafka topic for downstream
// monitoring. It implements pipeline.RunSink.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the run-metrics topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishRun serializes and publishes one run summary keyed by pipeline name,
// so runs of the same pipeline stay ordered within a partition.
func (p *Publisher) PublishRun(ctx context.Context, m domain.RunMetrics) error {
	msg, err := serializeRunMetrics(m)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish run metrics: %w", err)
	}
	p.logger.Debug("run metrics published", "pipeline", m.Pipeline, "run_id", m.RunID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeRunMetrics marshals RunMetrics into a Kafka message.
func serializeRunMetrics(m domain.RunMetrics) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run metrics: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.Pipeline),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(m.RunID)},
			{Key: "status", Value: []byte(m.Status)},
			{Key: "completed_at", Value: []byte(m.CompletedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}

//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/adapter/kafka"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testRunsTopic = "test-pipeline-runs"

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("snowline-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = ctr.Terminate(context.Background())
	})

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestPublisherRoundTrip publishes a run summary and reads it back from the topic.
func TestPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testRunsTopic)

	pub := kafka.NewPublisher([]string{broker}, testRunsTopic, sharedobs.NewLogger("error", "text"))
	t.Cleanup(func() { _ = pub.Close() })

	done := time.Now().UTC().Truncate(time.Second)
	run := domain.RunMetrics{
		RunID:          "0b6a1f5e-5c59-4e0c-8d0b-7f7b7e7f0001",
		Pipeline:       "conditions-refresh",
		Status:         domain.RunCompleted,
		StartedAt:      done.Add(-30 * time.Second),
		CompletedAt:    done,
		DurationMs:     30000,
		ItemsProcessed: 8,
		RowsUpserted:   8,
	}
	require.NoError(t, pub.PublishRun(ctx, run))

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		Topic:   testRunsTopic,
		GroupID: fmt.Sprintf("test-runs-%d", time.Now().UnixNano()),
	})
	t.Cleanup(func() { _ = reader.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err, "read from runs topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "conditions-refresh", string(msg.Key))
	assert.Equal(t, "completed", headers["status"])
	assert.Equal(t, run.RunID, headers["run_id"])

	var got domain.RunMetrics
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, run.Pipeline, got.Pipeline)
	assert.Equal(t, run.RowsUpserted, got.RowsUpserted)
	assert.True(t, run.CompletedAt.Equal(got.CompletedAt))
}

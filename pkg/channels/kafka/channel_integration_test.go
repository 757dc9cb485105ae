package kafka_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/scriptorium/pkg/channels/kafka"
	"github.com/dukex/scriptorium/pkg/eventbus"
	"github.com/dukex/scriptorium/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaTc "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func startKafka(t *testing.T) []string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}

	ctx := context.Background()

	container, err := kafkaTc.Run(ctx, "confluentinc/confluent-local:7.7.0")
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("Failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	createTopic(t, brokers, events.Topic)

	return brokers
}

func createTopic(t *testing.T, brokers []string, topic string) {
	t.Helper()

	admin, err := sarama.NewClusterAdmin(brokers, sarama.NewConfig())
	require.NoError(t, err)

	defer func() {
		_ = admin.Close()
	}()

	err = admin.CreateTopic(topic, &sarama.TopicDetail{NumPartitions: 1, ReplicationFactor: 1}, false)
	if err != nil && !isTopicExists(err) {
		require.NoError(t, err)
	}
}

func isTopicExists(err error) bool {
	var topicErr *sarama.TopicError

	return errors.As(err, &topicErr) && topicErr.Err == sarama.ErrTopicAlreadyExists
}

func TestKafkaChannel_DeliversRunEvents(t *testing.T) {
	brokers := startKafka(t)

	logger := watermill.NewSlogLogger(slog.Default())

	pub, sub, err := kafka.CreateChannel(logger, brokers, "scriptorium-test")
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	received := make(chan *events.RunCompleted, 16)

	require.NoError(t, bus.Handle(events.RunCompletedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.RunCompleted)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	event := events.RunCompleted{
		BaseEvent: events.NewBaseEvent(events.RunCompletedEvent, "wf-kafka"),
		RunID:     "run-1",
		FinalText: "RAW TEXT::CLEAN",
		Steps:     1,
	}

	// The consumer group starts at the newest offset, so keep publishing
	// until the subscriber has joined and sees one.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		require.NoError(t, bus.Publish(ctx, event.WorkflowID, event))

		select {
		case got := <-received:
			assert.Equal(t, "run-1", got.RunID)
			assert.Equal(t, "wf-kafka", got.WorkflowID)
			assert.Equal(t, "RAW TEXT::CLEAN", got.FinalText)

			return
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatal("run.completed not delivered over kafka")
		}
	}
}

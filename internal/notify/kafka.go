package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"agritrace/internal/ledger/models"
)

// Kafka publishes ledger events as JSON records. Records carry the product
// ID as key so per-product ordering survives partitioning; farmer events key
// on the farmer principal instead. Produce failures are logged, never
// surfaced — subscribers get at-least-once from the broker, the ledger stays
// fire-and-forget.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafka connects to the brokers and ensures the topic exists. The
// returned publisher is safe for concurrent use.
func NewKafka(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

// Emit serializes the event and hands it to the producer. The callback logs
// delivery failures; Emit itself never blocks on the broker.
func (k *Kafka) Emit(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(recordKey(event)),
		Value: payload,
	}
	k.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			k.logger.Warn("ledger event delivery failed",
				"topic", r.Topic,
				"key", string(r.Key),
				"type", string(event.Type),
				"error", err,
			)
		}
	})
	return nil
}

// Flush drains pending records. Call during shutdown.
func (k *Kafka) Flush(ctx context.Context) error {
	return k.client.Flush(ctx)
}

// Close flushes and releases the client.
func (k *Kafka) Close() {
	k.client.Close()
}

func recordKey(event models.Event) string {
	if event.Type == models.EventFarmerVerified {
		return event.Farmer.String()
	}
	return event.ProductID.String()
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	topics, err := admin.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("list kafka topics: %w", err)
	}
	if topics.Has(topic) {
		return nil
	}
	if _, err := admin.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		return fmt.Errorf("create kafka topic %q: %w", topic, err)
	}
	return nil
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"gare/internal/tender/models"
)

// Kafka publishes state-change records to a topic, keyed by lot id so all
// changes of one lot land on the same partition in order.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects a producer to the given brokers.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic}, nil
}

func (k *Kafka) Dispatch(ctx context.Context, records []models.StateChangeRecord) error {
	kgoRecords := make([]*kgo.Record, 0, len(records))
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal state change: %w", err)
		}
		kgoRecords = append(kgoRecords, &kgo.Record{
			Topic: k.topic,
			Key:   []byte(rec.LotID.String()),
			Value: payload,
		})
	}
	if err := k.client.ProduceSync(ctx, kgoRecords...).FirstErr(); err != nil {
		return fmt.Errorf("produce state changes: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (k *Kafka) Close() {
	k.client.Close()
}

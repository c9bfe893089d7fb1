package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"hopecycle/internal/notification"
)

// Topic carries every dispatched notification, keyed by user ID so one user's
// notifications stay ordered within a partition.
const Topic = "hopecycle.notifications"

// KafkaSink publishes outbox entries to Kafka.
type KafkaSink struct {
	client *kgo.Client
}

// NewKafkaSink connects to the brokers and ensures the topic exists. Returns
// nil when no brokers are configured (Kafka optional in development).
func NewKafkaSink(ctx context.Context, brokers []string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(Topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, 3, 1, nil, Topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure topic: %w", err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return &KafkaSink{client: client}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, entry *notification.OutboxEntry) error {
	record := &kgo.Record{
		Topic: Topic,
		Key:   []byte(entry.UserID.String()),
		Value: entry.Payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce notification: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() {
	if s != nil && s.client != nil {
		s.client.Close()
	}
}

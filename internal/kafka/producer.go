package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Topics for subscription lifecycle events.
const (
	TopicSubscriptionCreated   = "subscription_created"
	TopicSubscriptionUpdated   = "subscription_updated"
	TopicSubscriptionCancelled = "subscription_cancelled"
)

// Producer publishes subscription lifecycle events. Publishing is
// best-effort: services log failures and continue.
type Producer interface {
	PublishSubscriptionEvent(ctx context.Context, topic string, sub *domain.Subscription) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaProducer creates a producer writing to the given brokers.
func NewKafkaProducer(brokers []string, log *logger.Logger) (Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	log.Infow("Kafka producer initialized", "brokers", brokers)
	return &kafkaProducer{writer: writer, log: log}, nil
}

// PublishSubscriptionEvent sends the subscription snapshot as JSON. The user
// id keys the message so events for one user stay ordered within a partition.
func (k *kafkaProducer) PublishSubscriptionEvent(ctx context.Context, topic string, sub *domain.Subscription) error {
	value, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("kafka: failed to marshal message data: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(sub.UserID.String()),
		Value: value,
		Time:  time.Now(),
	}

	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(writeCtx, message); err != nil {
		k.log.Errorw("Failed to write message to Kafka", "error", err, "topic", topic, "userID", sub.UserID)
		return fmt.Errorf("kafka: failed to write message: %w", err)
	}

	k.log.Debugw("Published subscription event", "topic", topic, "userID", sub.UserID, "plan", sub.Plan)
	return nil
}

func (k *kafkaProducer) Close() error {
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("kafka: failed to close writer: %w", err)
	}
	return nil
}

// NopProducer discards events. Used when the broker is not configured and in
// tests.
type NopProducer struct{}

func (NopProducer) PublishSubscriptionEvent(context.Context, string, *domain.Subscription) error {
	return nil
}

func (NopProducer) Close() error { return nil }

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
)

type Producer struct {
	logger   *slog.Logger
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(logger *slog.Logger, brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return newProducer(logger, producer, topic), nil
}

func newProducer(logger *slog.Logger, producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{
		logger:   logger.With("component", "event-producer"),
		producer: producer,
		topic:    topic,
	}
}

// Publish sends the event keyed by game id, so events of one game stay ordered.
func (that *Producer) Publish(ctx context.Context, event GameEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: that.topic,
		Key:   sarama.StringEncoder(event.GameID),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := that.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}

	that.logger.Debug("event sent", "event", event.Event, "gameID", event.GameID, "partition", partition, "offset", offset)

	return nil
}

func (that *Producer) Close() error {
	if err := that.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}

	return nil
}

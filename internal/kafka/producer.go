package kafka

import (
	"context"
	"fmt"

	"ms-parking/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Publisher writes one keyed message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
	Close() error
}

type Producer struct {
	Writer *kafka.Writer
}

// NewProducer returns a producer that picks the topic per message. Messages
// with the same key land on the same partition.
func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// LogPublisher stands in for the broker in mock mode.
type LogPublisher struct {
	Logger *logger.Logger
}

func (p *LogPublisher) Publish(_ context.Context, topic, key string, value []byte) error {
	p.Logger.LogKafka("MOCK", topic, fmt.Sprintf("key=%s %s", key, value))
	return nil
}

func (p *LogPublisher) Close() error { return nil }

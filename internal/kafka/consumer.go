package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"ms-parking/internal/logger"
	"ms-parking/internal/models"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

// NewConsumer joins groupID and reads every topic in topics.
func NewConsumer(brokers []string, topics []string, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupTopics: topics,
		GroupID:     groupID,
		MinBytes:    1,    // deliver single events promptly
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log}
}

// Start reads until ctx is cancelled. Undecodable messages are logged and
// skipped.
func (c *Consumer) Start(ctx context.Context, handler func(topic string, event models.ParkingEvent)) error {
	c.logger.Info("KAFKA", "Kafka consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				// reader closed
				return nil
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			continue
		}

		var event models.ParkingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal message on %s: %v", msg.Topic, err))
			continue
		}

		handler(msg.Topic, event)
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}

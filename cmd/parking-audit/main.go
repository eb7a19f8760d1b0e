// parking-audit follows the parking event topics and writes every event to
// the audit log.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ms-parking/internal/config"
	"ms-parking/internal/kafka"
	"ms-parking/internal/logger"
	"ms-parking/internal/models"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	brokers := strings.Join(cfg.Kafka.Brokers, ",")
	flagSet := pflag.NewFlagSet("parking-audit", pflag.ExitOnError)
	flagSet.StringVar(&brokers, "brokers", brokers, "comma separated Kafka brokers")
	flagSet.StringVar(&cfg.Kafka.GroupID, "group", cfg.Kafka.GroupID, "consumer group id")
	_ = flagSet.Parse(os.Args[1:])
	cfg.Kafka.Brokers = strings.Split(brokers, ",")

	log := logger.NewLogger("parking-audit", cfg.Log.Dir)
	defer log.Close()
	log.SetLevel(logger.ParseLevel(cfg.Log.Level))

	topics := cfg.Kafka.Topics.All()
	if available, err := kafka.ListTopics(context.Background(), cfg.Kafka.Brokers); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Could not list topics: %v", err))
	} else {
		log.Info("KAFKA", fmt.Sprintf("Broker topics: %s", strings.Join(available, ", ")))
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topics, cfg.Kafka.GroupID, log)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("APP", fmt.Sprintf("Auditing %s", strings.Join(topics, ", ")))
	err := consumer.Start(ctx, func(topic string, event models.ParkingEvent) {
		log.LogKafka("AUDIT", topic, fmt.Sprintf("%s key=%s at=%s %s",
			event.Type, event.Key, event.OccurredAt.Format("2006-01-02T15:04:05Z07:00"), event.Payload))
	})
	if err != nil {
		log.Error("KAFKA", fmt.Sprintf("Consumer stopped: %v", err))
		os.Exit(1)
	}
	log.Info("APP", "✅ Audit consumer shutdown complete")
}

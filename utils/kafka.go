package utils

import (
	"context"
	"log"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/mwangik8/sugar-board-backend/config"
)

// eventWriter publishes board events (submissions, stage changes,
// decisions) for downstream consumers. Nil when Kafka is not configured.
var eventWriter *kafka.Writer

// InitializeKafka sets up the event producer. The alert consumer is owned
// by the feed package since it writes into the feed store.
func InitializeKafka(cfg *config.Config) {
	if cfg.KafkaBrokers == "" || cfg.KafkaEventTopic == "" {
		log.Println("⚠️ Kafka not configured, event publishing disabled")
		return
	}

	eventWriter = &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(cfg.KafkaBrokers, ",")...),
		Topic:    cfg.KafkaEventTopic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Printf("✅ Kafka event producer ready (topic: %s)", cfg.KafkaEventTopic)
}

// PublishEvent writes one event message keyed by the entity id.
// Failures are logged, never surfaced; event publishing is best effort.
func PublishEvent(ctx context.Context, key string, payload []byte) {
	if eventWriter == nil {
		return
	}
	err := eventWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		log.Printf("❌ Kafka publish failed for %s: %v", key, err)
	}
}

// NewAlertReader builds a consumer for the upstream alert topic.
// Returns nil when ingestion is not configured.
func NewAlertReader(cfg *config.Config) *kafka.Reader {
	if cfg.KafkaBrokers == "" || cfg.KafkaAlertTopic == "" {
		log.Println("⚠️ Kafka not configured, alert ingestion disabled")
		return nil
	}

	groupID := cfg.KafkaGroupID
	if groupID == "" {
		groupID = "sugar-board-backend"
	}

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: strings.Split(cfg.KafkaBrokers, ","),
		Topic:   cfg.KafkaAlertTopic,
		GroupID: groupID,
	})
}

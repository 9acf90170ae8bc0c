// Package consumer tails the metrics topic and decodes published records.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/source-open/metrics-kafka/internal/reporter"
	kafkautil "github.com/source-open/metrics-kafka/pkg/kafka"
)

// Consumer wraps a Kafka reader on a metrics topic.
type Consumer struct {
	reader  *kafka.Reader
	topic   string
	groupID string
}

// New creates a consumer for topic. An empty groupID tails every partition
// from the newest offset under a generated throwaway group.
func New(brokers, topic, groupID string) (*Consumer, error) {
	if groupID != "" {
		if err := kafkautil.ValidateConsumerParams(brokers, topic, groupID); err != nil {
			return nil, err
		}
	} else if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)

	var cfg kafka.ReaderConfig
	if groupID != "" {
		cfg = kafkautil.NewReaderConfig(brokerList, topic, groupID)
	} else {
		cfg = kafkautil.NewTailReaderConfig(brokerList, topic)
	}

	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", cfg.GroupID,
	)

	reader := kafka.NewReader(cfg)
	kafkautil.LogReaderConfig(nil)

	return &Consumer{
		reader:  reader,
		topic:   topic,
		groupID: cfg.GroupID,
	}, nil
}

// GroupID returns the consumer group the reader joined.
func (c *Consumer) GroupID() string {
	return c.groupID
}

// ReadRecord reads the next message and decodes it using its content-type
// header. The raw message is returned even when decoding fails.
func (c *Consumer) ReadRecord(ctx context.Context) (reporter.Record, *kafka.Message, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return reporter.Record{}, nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}

	rec, err := reporter.Decode(Header(msg, reporter.HeaderContentType), msg.Value)
	if err != nil {
		return reporter.Record{}, &msg, err
	}
	return rec, &msg, nil
}

// Header returns the value of the named header, or "" when absent.
func Header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Close closes the Kafka reader.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	slog.Info("Kafka consumer closed successfully")
	return nil
}

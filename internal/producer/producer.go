// Package producer provides the Kafka producer used to publish metric records.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/source-open/metrics-kafka/internal/config"
	kafkautil "github.com/source-open/metrics-kafka/pkg/kafka"
)

const (
	// maxRetries bounds attempts when the topic is not ready yet.
	maxRetries = 2
	// topicRetryDelay is the wait between attempts on an unknown topic.
	topicRetryDelay = 2 * time.Second
)

// Publisher publishes batches of Kafka messages to a fixed topic.
type Publisher interface {
	Publish(ctx context.Context, msgs ...kafka.Message) error
	Topic() string
	Close() error
}

// Producer wraps a Kafka writer for a single metrics topic.
type Producer struct {
	writer *kafka.Writer
	topic  string
	logger *slog.Logger
}

// Ensure Producer implements Publisher interface
var _ Publisher = (*Producer)(nil)

// New creates a Kafka producer for cfg.Topic on cfg.BrokerList.
// Writes are synchronous and keyed with the Hash balancer so a metric
// always lands on the same partition.
func New(cfg config.ProducerConfig, logger *slog.Logger) (*Producer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := kafkautil.ValidateProducerParams(cfg.BrokerList, cfg.Topic); err != nil {
		return nil, err
	}
	acks, err := kafkautil.ParseRequiredAcks(cfg.RequiredAcks)
	if err != nil {
		return nil, err
	}
	codec, err := kafkautil.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(cfg.BrokerList)

	logger.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"topic", cfg.Topic,
	)

	if cfg.AutoCreateTopic {
		createTopicIfNotExists(logger, brokerList[0], cfg.Topic)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: kafkautil.WriteTimeout,
		RequiredAcks: acks,
		Compression:  codec,
		Async:        false,
	}

	logger.Info("Kafka producer configured",
		"write_timeout", kafkautil.WriteTimeout,
		"required_acks", cfg.RequiredAcks,
		"compression", cfg.Compression,
		"async", false,
	)

	return &Producer{
		writer: writer,
		topic:  cfg.Topic,
		logger: logger,
	}, nil
}

// Topic returns the topic the producer writes to.
func (p *Producer) Topic() string {
	return p.topic
}

// Publish writes msgs as one batch and waits for the configured acks.
// A batch rejected because the topic does not exist yet is retried once.
func (p *Producer) Publish(ctx context.Context, msgs ...kafka.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	var writeErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		writeErr = p.writer.WriteMessages(ctx, msgs...)
		if writeErr == nil {
			return nil
		}

		if errors.Is(writeErr, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return context.Canceled
		}

		if isUnknownTopic(writeErr) && attempt < maxRetries {
			p.logger.Info("Topic not ready, retrying after delay",
				"topic", p.topic,
				"attempt", attempt,
				"max_retries", maxRetries,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(topicRetryDelay):
			}
			continue
		}

		p.logger.Error("Failed to write messages to Kafka",
			"topic", p.topic,
			"messages", len(msgs),
			"error", writeErr,
			"attempt", attempt,
		)
		return fmt.Errorf("failed to write messages to Kafka: %w", writeErr)
	}

	return fmt.Errorf("failed to write messages to Kafka after %d attempts: %w", maxRetries, writeErr)
}

func isUnknownTopic(err error) bool {
	if errors.Is(err, kafka.UnknownTopicOrPartition) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Unknown Topic Or Partition") || strings.Contains(msg, "does not exist")
}

// Close gracefully closes the Kafka writer and releases resources.
func (p *Producer) Close() error {
	p.logger.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Error closing Kafka producer", "error", err)
		return err
	}
	p.logger.Info("Kafka producer closed successfully")
	return nil
}

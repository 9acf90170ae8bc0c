// Package kafka provides shared Kafka utilities for the reporter and its consumers.
package kafka

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// ParseBrokers parses a comma-separated broker list and trims whitespace.
// Empty entries are dropped.
func ParseBrokers(brokers string) []string {
	if brokers == "" {
		return nil
	}
	parts := strings.Split(brokers, ",")
	brokerList := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokerList = append(brokerList, p)
		}
	}
	return brokerList
}

// ValidateConsumerParams validates common consumer parameters.
func ValidateConsumerParams(brokers, topic, groupID string) error {
	if err := ValidateProducerParams(brokers, topic); err != nil {
		return err
	}
	if groupID == "" {
		return fmt.Errorf("groupID cannot be empty")
	}
	return nil
}

// ValidateProducerParams validates common producer parameters.
func ValidateProducerParams(brokers, topic string) error {
	if len(ParseBrokers(brokers)) == 0 {
		return fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	return nil
}

// ParseRequiredAcks maps the broker-style request.required.acks value
// ("0", "1", "-1" or "all") onto the kafka-go setting.
func ParseRequiredAcks(v string) (kafka.RequiredAcks, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "1":
		return kafka.RequireOne, nil
	case "0":
		return kafka.RequireNone, nil
	case "-1", "all":
		return kafka.RequireAll, nil
	default:
		return kafka.RequireOne, fmt.Errorf("unsupported required acks %q", v)
	}
}

// ParseCompression maps a compression.codec value onto the kafka-go codec.
// "none" and the empty string disable compression.
func ParseCompression(codec string) (kafka.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(codec)) {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	default:
		return 0, fmt.Errorf("unsupported compression codec %q", codec)
	}
}

// ReaderConfigValues holds the actual values used in the reader config for logging.
type ReaderConfigValues struct {
	MinBytes       int
	MaxBytes       int
	MaxWait        string
	CommitInterval string
}

// GetReaderConfigValues returns the configuration values used by NewReaderConfig.
func GetReaderConfigValues() ReaderConfigValues {
	return ReaderConfigValues{
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        MaxPollWait.String(),
		CommitInterval: CommitInterval.String(),
	}
}

// LogReaderConfig logs the reader configuration values.
func LogReaderConfig(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := GetReaderConfigValues()
	logger.Info("Kafka consumer configured",
		"min_bytes", cfg.MinBytes,
		"max_bytes", cfg.MaxBytes,
		"max_wait", cfg.MaxWait,
		"commit_interval", cfg.CommitInterval,
	)
}

// TailGroupPrefix prefixes the throwaway consumer groups created for tailing.
const TailGroupPrefix = "metrics-tail-"

// NewReaderConfig creates a reader configuration for consuming a metrics
// topic as groupID. A new group starts from the oldest offset.
func NewReaderConfig(brokers []string, topic, groupID string) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,    // Return immediately when any data is available
		MaxBytes:       10e6, // 10MB
		MaxWait:        MaxPollWait,
		CommitInterval: CommitInterval,
		StartOffset:    kafka.FirstOffset,
	}
}

// NewTailReaderConfig creates a reader configuration that follows every
// partition of topic from the newest offset. A reader without a group only
// reads one partition, so a unique group is generated instead.
func NewTailReaderConfig(brokers []string, topic string) kafka.ReaderConfig {
	cfg := NewReaderConfig(brokers, topic, TailGroupPrefix+uuid.NewString())
	cfg.StartOffset = kafka.LastOffset
	return cfg
}

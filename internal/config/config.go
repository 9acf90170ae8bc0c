package config

import (
	"fmt"
	"math"
	"strings"

	kafkautil "github.com/source-open/metrics-kafka/pkg/kafka"
)

// Property names read by the reporter.
const (
	KeyPort            = "port"
	KeyBrokerID        = "broker.id"
	KeyBrokerList      = "metadata.broker.list"
	KeyReporters       = "kafka.metrics.reporters"
	KeyPollingInterval = "kafka.metrics.polling.interval.secs"
	KeyTopic           = "metrics.topic"
	KeyTopicAutoCreate = "metrics.auto.create.topic"
	KeyRequiredAcks    = "request.required.acks"
	KeyCompression     = "compression.codec"
	KeySerializer      = "metrics.serializer"
	KeyMockProducer    = "metrics.producer.mock"
	KeySnapshotRedis   = "metrics.snapshot.redis.addr"
)

const (
	// DefaultPollingIntervalSecs is used when no polling interval is configured.
	DefaultPollingIntervalSecs = 10
	// MaxPollingIntervalSecs bounds the polling interval so it fits a time.Duration.
	MaxPollingIntervalSecs = math.MaxInt32
	// DefaultTopic is the topic metrics are published on.
	DefaultTopic = "metrics"

	SerializerJSON     = "json"
	SerializerProtobuf = "protobuf"
)

// MetricsConfig holds the host-level metrics reporting settings.
type MetricsConfig struct {
	Reporters           []string
	PollingIntervalSecs int
}

// ParseMetricsConfig reads the reporter list and polling interval.
func ParseMetricsConfig(props *Properties) (MetricsConfig, error) {
	interval, err := props.GetIntInRange(KeyPollingInterval, DefaultPollingIntervalSecs, 1, MaxPollingIntervalSecs)
	if err != nil {
		return MetricsConfig{}, err
	}
	return MetricsConfig{
		Reporters:           props.GetCSV(KeyReporters),
		PollingIntervalSecs: interval,
	}, nil
}

// ProducerConfig describes where and how a reporter publishes metrics.
type ProducerConfig struct {
	BrokerList      string
	Topic           string
	AutoCreateTopic bool
	RequiredAcks    string
	Compression     string
	Serializer      string
	Mock            bool
	RedisAddr       string
}

// NewProducerConfig builds a ProducerConfig from props. The broker list
// comes from metadata.broker.list.
func NewProducerConfig(props *Properties) (ProducerConfig, error) {
	autoCreate, err := props.GetBool(KeyTopicAutoCreate, true)
	if err != nil {
		return ProducerConfig{}, err
	}
	mock, err := props.GetBool(KeyMockProducer, false)
	if err != nil {
		return ProducerConfig{}, err
	}
	cfg := ProducerConfig{
		BrokerList:      props.GetStringDefault(KeyBrokerList, ""),
		Topic:           props.GetStringDefault(KeyTopic, DefaultTopic),
		AutoCreateTopic: autoCreate,
		RequiredAcks:    props.GetStringDefault(KeyRequiredAcks, "1"),
		Compression:     props.GetStringDefault(KeyCompression, "none"),
		Serializer:      strings.ToLower(props.GetStringDefault(KeySerializer, SerializerJSON)),
		Mock:            mock,
		RedisAddr:       props.GetStringDefault(KeySnapshotRedis, ""),
	}
	if err := cfg.Validate(); err != nil {
		return ProducerConfig{}, err
	}
	return cfg, nil
}

// Validate checks that all required fields are set and have valid values.
func (c ProducerConfig) Validate() error {
	if err := kafkautil.ValidateProducerParams(c.BrokerList, c.Topic); err != nil {
		return err
	}
	if _, err := kafkautil.ParseRequiredAcks(c.RequiredAcks); err != nil {
		return err
	}
	if _, err := kafkautil.ParseCompression(c.Compression); err != nil {
		return err
	}
	switch c.Serializer {
	case SerializerJSON, SerializerProtobuf:
	default:
		return fmt.Errorf("unsupported serializer %q", c.Serializer)
	}
	return nil
}

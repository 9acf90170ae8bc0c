package producer

import (
	"log/slog"

	"github.com/segmentio/kafka-go"

	kafkautil "github.com/source-open/metrics-kafka/pkg/kafka"
)

// createTopicIfNotExists attempts to create the topic if it doesn't exist.
// Failures are logged and do not prevent producer creation.
func createTopicIfNotExists(logger *slog.Logger, broker, topic string) {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		logger.Warn("Could not connect to Kafka to check/create topic",
			"broker", broker,
			"topic", topic,
			"error", err,
		)
		return
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(topic)
	if err == nil && len(partitions) > 0 {
		logger.Info("Topic already exists",
			"topic", topic,
			"partitions", len(partitions),
		)
		return
	}

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     kafkautil.DefaultPartitions,
		ReplicationFactor: kafkautil.DefaultReplicationFactor,
	})
	if err != nil {
		logger.Warn("Could not create topic (may need to be created manually)",
			"topic", topic,
			"error", err,
		)
		return
	}

	logger.Info("Created topic",
		"topic", topic,
		"partitions", kafkautil.DefaultPartitions,
		"replication_factor", kafkautil.DefaultReplicationFactor,
	)
}

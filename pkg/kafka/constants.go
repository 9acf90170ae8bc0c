package kafka

import "time"

const (
	// MaxPollWait is the maximum time a reader waits for new data before returning.
	MaxPollWait = 500 * time.Millisecond
	// CommitInterval is how often consumer offsets are committed.
	CommitInterval = 1 * time.Second
	// WriteTimeout is the maximum time to wait for a Kafka write operation.
	WriteTimeout = 10 * time.Second
	// DefaultPartitions is used when the metrics topic has to be created.
	DefaultPartitions = 3
	// DefaultReplicationFactor is used when the metrics topic has to be created.
	DefaultReplicationFactor = 1
)

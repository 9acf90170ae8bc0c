package producer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"
)

// MockProducer logs records instead of publishing them to Kafka.
// Useful when running a broker without a reachable metrics topic.
type MockProducer struct {
	topic  string
	logger *slog.Logger

	mu        sync.Mutex
	published int
	closed    bool
}

// Ensure MockProducer implements Publisher interface
var _ Publisher = (*MockProducer)(nil)

// NewMock creates a mock producer for topic.
func NewMock(topic string, logger *slog.Logger) *MockProducer {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Using mock producer (no Kafka connection)",
		"topic", topic,
		"note", "Metric records will be logged but not published to Kafka",
	)
	return &MockProducer{topic: topic, logger: logger}
}

// Topic returns the topic the producer pretends to write to.
func (p *MockProducer) Topic() string {
	return p.topic
}

// Publish logs every message at debug level and a summary at info level.
func (p *MockProducer) Publish(ctx context.Context, msgs ...kafka.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, msg := range msgs {
		p.logger.Debug("Mock publish",
			"topic", p.topic,
			"key", string(msg.Key),
			"value", string(msg.Value),
		)
	}

	p.mu.Lock()
	p.published += len(msgs)
	total := p.published
	p.mu.Unlock()

	p.logger.Info("Mock publish (records logged, not sent to Kafka)",
		"topic", p.topic,
		"records", len(msgs),
		"total_records", total,
	)
	return nil
}

// Published returns how many messages have been published so far.
func (p *MockProducer) Published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published
}

// Closed reports whether Close has been called.
func (p *MockProducer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close marks the mock producer closed.
func (p *MockProducer) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.logger.Info("Mock producer closed", "topic", p.topic)
	return nil
}

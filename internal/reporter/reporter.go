// Package reporter periodically gathers a metrics registry and publishes
// every sample as a message on a Kafka topic.
package reporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/source-open/metrics-kafka/internal/config"
	"github.com/source-open/metrics-kafka/internal/producer"
	"github.com/source-open/metrics-kafka/internal/snapshot"
	kafkautil "github.com/source-open/metrics-kafka/pkg/kafka"
)

var (
	// ErrAlreadyStarted is returned by Start on a reporter that is running.
	ErrAlreadyStarted = errors.New("reporter already started")
	// ErrShutdown is returned by Start after Shutdown.
	ErrShutdown = errors.New("reporter is shut down")
)

// SnapshotWriter receives a summary of every published batch.
type SnapshotWriter interface {
	Write(ctx context.Context, snap snapshot.Snapshot) error
	Close() error
}

// Option configures a TopicReporter.
type Option func(*TopicReporter)

// WithPublisher overrides the publisher built from the producer config.
func WithPublisher(p producer.Publisher) Option {
	return func(r *TopicReporter) { r.publisher = p }
}

// WithSnapshotWriter overrides the Redis snapshot mirror.
func WithSnapshotWriter(w SnapshotWriter) Option {
	return func(r *TopicReporter) { r.snapshots = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *TopicReporter) { r.logger = l }
}

// WithClock overrides time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *TopicReporter) { r.now = now }
}

// TopicReporter publishes the samples of a Gatherer to a Kafka topic on a
// fixed period. A reporter can be started once; after Shutdown a new one
// must be constructed.
type TopicReporter struct {
	gatherer  prometheus.Gatherer
	id        string
	publisher producer.Publisher
	encoder   Encoder
	snapshots SnapshotWriter
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a reporter publishing reg's samples under identifier id.
func New(reg prometheus.Gatherer, cfg config.ProducerConfig, id string, opts ...Option) (*TopicReporter, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if id == "" {
		return nil, fmt.Errorf("reporter id cannot be empty")
	}
	encoder, err := NewEncoder(cfg.Serializer)
	if err != nil {
		return nil, err
	}

	r := &TopicReporter{
		gatherer: reg,
		id:       id,
		encoder:  encoder,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("reporter", id)

	if r.publisher == nil {
		if cfg.Mock {
			r.publisher = producer.NewMock(cfg.Topic, r.logger)
		} else {
			p, err := producer.New(cfg, r.logger)
			if err != nil {
				return nil, fmt.Errorf("failed to create producer: %w", err)
			}
			r.publisher = p
		}
	}
	if r.snapshots == nil && cfg.RedisAddr != "" {
		r.snapshots = snapshot.NewStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), snapshot.TTL)
	}

	return r, nil
}

// ID returns the reporter identifier, e.g. broker0.
func (r *TopicReporter) ID() string {
	return r.id
}

// Start begins publishing every period.
func (r *TopicReporter) Start(period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("polling period must be > 0, got %s", period)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrShutdown
	}
	if r.started {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.started = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Report(ctx); err != nil && ctx.Err() == nil {
					r.logger.Error("Failed to publish metrics", "error", err)
				}
			}
		}
	}()

	r.logger.Debug("Reporter loop started", "period", period, "topic", r.publisher.Topic())
	return nil
}

// Report gathers the registry once and publishes every sample as one batch.
func (r *TopicReporter) Report(ctx context.Context) error {
	families, err := r.gatherer.Gather()
	if err != nil {
		if len(families) == 0 {
			return fmt.Errorf("failed to gather metrics: %w", err)
		}
		r.logger.Warn("Partial metrics gather", "error", err)
	}

	now := r.now()
	records := ToRecords(r.id, families, now)
	if len(records) == 0 {
		return nil
	}

	batchID := uuid.NewString()
	msgs := make([]kafka.Message, 0, len(records))
	samples := make(map[string]float64, len(records))
	for _, rec := range records {
		payload, err := r.encoder.Encode(rec)
		if err != nil {
			return err
		}
		key := rec.Key()
		samples[key] = rec.Value
		msgs = append(msgs, kafka.Message{
			Key:   []byte(key),
			Value: payload,
			Headers: []kafka.Header{
				{Key: HeaderContentType, Value: []byte(r.encoder.ContentType())},
				{Key: HeaderReporter, Value: []byte(r.id)},
				{Key: HeaderBatchID, Value: []byte(batchID)},
			},
			Time: now,
		})
	}

	if err := r.publisher.Publish(ctx, msgs...); err != nil {
		return err
	}

	r.logger.Debug("Published metrics batch",
		"topic", r.publisher.Topic(),
		"records", len(msgs),
		"batch_id", batchID,
	)

	if r.snapshots != nil {
		snap := snapshot.Snapshot{
			Reporter:    r.id,
			Topic:       r.publisher.Topic(),
			BatchID:     batchID,
			PublishedAt: now.UTC(),
			Records:     len(msgs),
			Status:      snapshot.StatusFresh,
			Samples:     samples,
		}
		if err := r.snapshots.Write(ctx, snap); err != nil {
			r.logger.Warn("Failed to mirror snapshot", "error", err)
		}
	}
	return nil
}

// Shutdown stops the publishing loop, publishes a final batch if the
// reporter was running, and releases the publisher. Calling it again is a no-op.
func (r *TopicReporter) Shutdown() error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	wasStarted := r.started
	cancel := r.cancel
	r.mu.Unlock()

	var errs []error
	if wasStarted {
		cancel()
		r.wg.Wait()

		ctx, done := context.WithTimeout(context.Background(), kafkautil.WriteTimeout)
		if err := r.Report(ctx); err != nil {
			errs = append(errs, fmt.Errorf("final report: %w", err))
		}
		done()
	}

	if err := r.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	if r.snapshots != nil {
		if err := r.snapshots.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

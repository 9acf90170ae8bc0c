package reporter

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/source-open/metrics-kafka/internal/snapshot"
)

// FakePublisher is a test fake for producer.Publisher.
type FakePublisher struct {
	mu         sync.Mutex
	Batches    [][]kafka.Message
	PublishErr error
	CloseErr   error
	Closed     bool
}

func (f *FakePublisher) Publish(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishErr != nil {
		return f.PublishErr
	}
	f.Batches = append(f.Batches, msgs)
	return nil
}

func (f *FakePublisher) Topic() string { return "metrics" }

func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return f.CloseErr
}

func (f *FakePublisher) BatchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Batches)
}

// FakeSnapshots is a test fake for SnapshotWriter.
type FakeSnapshots struct {
	mu      sync.Mutex
	Written []snapshot.Snapshot
	Closed  bool
}

func (f *FakeSnapshots) Write(ctx context.Context, snap snapshot.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Written = append(f.Written, snap)
	return nil
}

func (f *FakeSnapshots) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

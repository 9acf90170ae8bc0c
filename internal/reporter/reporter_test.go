package reporter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/source-open/metrics-kafka/internal/config"
	"github.com/source-open/metrics-kafka/pkg/metrics"
)

func testProducerConfig() config.ProducerConfig {
	return config.ProducerConfig{
		BrokerList:   "localhost:9092",
		Topic:        "metrics",
		RequiredAcks: "1",
		Compression:  "none",
		Serializer:   config.SerializerJSON,
	}
}

func newTestReporter(t *testing.T, pub *FakePublisher, snaps *FakeSnapshots) (*TopicReporter, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry(false)
	reg.SetQueueDepth("request", 5)
	opts := []Option{WithPublisher(pub)}
	if snaps != nil {
		opts = append(opts, WithSnapshotWriter(snaps))
	}
	r, err := New(reg, testProducerConfig(), "broker0", opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r, reg
}

func TestNew_Validation(t *testing.T) {
	reg := metrics.NewRegistry(false)

	if _, err := New(nil, testProducerConfig(), "broker0"); err == nil {
		t.Error("New() with nil registry should fail")
	}
	if _, err := New(reg, testProducerConfig(), ""); err == nil {
		t.Error("New() with empty id should fail")
	}
	cfg := testProducerConfig()
	cfg.Serializer = "avro"
	if _, err := New(reg, cfg, "broker0"); err == nil {
		t.Error("New() with unknown serializer should fail")
	}
}

func TestNew_MockProducer(t *testing.T) {
	cfg := testProducerConfig()
	cfg.Mock = true
	r, err := New(metrics.NewRegistry(false), cfg, "broker0")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if r.publisher.Topic() != "metrics" {
		t.Errorf("publisher topic = %q, want metrics", r.publisher.Topic())
	}
	if err := r.Report(context.Background()); err != nil {
		t.Errorf("Report() through mock error = %v", err)
	}
	if err := r.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestReport_PublishesBatch(t *testing.T) {
	pub := &FakePublisher{}
	snaps := &FakeSnapshots{}
	r, _ := newTestReporter(t, pub, snaps)

	if err := r.Report(context.Background()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if pub.BatchCount() != 1 {
		t.Fatalf("batches = %d, want 1", pub.BatchCount())
	}
	batch := pub.Batches[0]
	// queue depth plus the unlabelled processing errors counter
	if len(batch) != 2 {
		t.Fatalf("batch size = %d, want 2", len(batch))
	}
	var msg kafka.Message
	for _, m := range batch {
		if string(m.Key) == `broker0.broker_queue_depth{queue="request"}` {
			msg = m
		}
	}
	if msg.Value == nil {
		t.Fatal("queue depth message not published")
	}

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["content-type"] != ContentTypeJSON || headers["reporter"] != "broker0" || headers["batch_id"] == "" {
		t.Errorf("headers = %v", headers)
	}

	rec, err := Decode(headers["content-type"], msg.Value)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if rec.Value != 5 || rec.Type != TypeGauge {
		t.Errorf("decoded record = %+v", rec)
	}

	if len(snaps.Written) != 1 {
		t.Fatalf("snapshots written = %d, want 1", len(snaps.Written))
	}
	if snaps.Written[0].Records != 2 || snaps.Written[0].BatchID != headers["batch_id"] {
		t.Errorf("snapshot = %+v", snaps.Written[0])
	}
}

func TestReport_PublishError(t *testing.T) {
	pub := &FakePublisher{PublishErr: errors.New("broker down")}
	snaps := &FakeSnapshots{}
	r, _ := newTestReporter(t, pub, snaps)

	if err := r.Report(context.Background()); err == nil {
		t.Fatal("Report() error = nil, want publish error")
	}
	if len(snaps.Written) != 0 {
		t.Error("snapshot written after failed publish")
	}
}

func TestStart_Validation(t *testing.T) {
	r, _ := newTestReporter(t, &FakePublisher{}, nil)
	defer r.Shutdown()

	if err := r.Start(0); err == nil {
		t.Error("Start(0) should fail")
	}
	if err := r.Start(time.Hour); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := r.Start(time.Hour); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestStart_PublishesPeriodically(t *testing.T) {
	pub := &FakePublisher{}
	r, _ := newTestReporter(t, pub, nil)

	if err := r.Start(10 * time.Millisecond); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for pub.BatchCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if pub.BatchCount() < 2 {
		t.Fatalf("batches = %d, want at least 2", pub.BatchCount())
	}

	if err := r.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestShutdown(t *testing.T) {
	pub := &FakePublisher{}
	snaps := &FakeSnapshots{}
	r, _ := newTestReporter(t, pub, snaps)

	if err := r.Start(time.Hour); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := r.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if pub.BatchCount() != 1 {
		t.Errorf("batches after shutdown = %d, want final batch only", pub.BatchCount())
	}
	if !pub.Closed || !snaps.Closed {
		t.Error("Shutdown() did not release publisher and snapshot store")
	}
	if err := r.Start(time.Hour); !errors.Is(err, ErrShutdown) {
		t.Errorf("Start() after Shutdown error = %v, want ErrShutdown", err)
	}
	if err := r.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v, want nil", err)
	}
}

func TestShutdown_NeverStarted(t *testing.T) {
	pub := &FakePublisher{}
	r, _ := newTestReporter(t, pub, nil)

	if err := r.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if pub.BatchCount() != 0 {
		t.Errorf("batches = %d, want 0 for a reporter that never started", pub.BatchCount())
	}
	if !pub.Closed {
		t.Error("publisher not closed")
	}
}

func TestShutdown_ReturnsCloseError(t *testing.T) {
	pub := &FakePublisher{CloseErr: errors.New("close failed")}
	r, _ := newTestReporter(t, pub, nil)

	if err := r.Shutdown(); err == nil {
		t.Error("Shutdown() error = nil, want close error")
	}
}

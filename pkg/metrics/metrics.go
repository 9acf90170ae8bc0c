// Package metrics provides the broker's metrics registry.
// Broker code records throughput, latency and queue depth here; reporters
// gather the registry and publish the samples elsewhere.
package metrics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

// Namespace prefixes every core broker metric.
const Namespace = "broker"

// BrokerMetrics holds the core broker metrics.
type BrokerMetrics struct {
	MessagesIn       *prometheus.CounterVec
	BytesIn          *prometheus.CounterVec
	BytesOut         *prometheus.CounterVec
	RequestLatency   *prometheus.HistogramVec
	QueueDepth       *prometheus.GaugeVec
	ProcessingErrors prometheus.Counter
}

func newBrokerMetrics() *BrokerMetrics {
	return &BrokerMetrics{
		MessagesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_in_total",
			Help:      "Messages appended to topics",
		}, []string{"topic"}),
		BytesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bytes_in_total",
			Help:      "Bytes received from producers",
		}, []string{"topic"}),
		BytesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bytes_out_total",
			Help:      "Bytes sent to consumers",
		}, []string{"topic"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_latency_seconds",
			Help:      "Request handling latency",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"request"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "queue_depth",
			Help:      "Requests waiting in a broker queue",
		}, []string{"queue"}),
		ProcessingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "processing_errors_total",
			Help:      "Requests that failed while being handled",
		}),
	}
}

func (m *BrokerMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesIn,
		m.BytesIn,
		m.BytesOut,
		m.RequestLatency,
		m.QueueDepth,
		m.ProcessingErrors,
	}
}

// Registry wraps a Prometheus registry preloaded with the core broker metrics.
// It implements prometheus.Gatherer.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	broker             *BrokerMetrics
}

// NewRegistry creates a registry with core broker metrics and, when
// withRuntime is set, Go runtime and process collectors.
func NewRegistry(withRuntime bool) *Registry {
	reg := prometheus.NewRegistry()
	broker := newBrokerMetrics()
	reg.MustRegister(broker.collectors()...)
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return &Registry{prometheusRegistry: reg, broker: broker}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the process-wide registry, creating it on first use.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(true)
	})
	return defaultRegistry
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Broker returns the core broker metrics.
func (r *Registry) Broker() *BrokerMetrics {
	return r.broker
}

// Gather implements prometheus.Gatherer.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.prometheusRegistry.Gather()
}

// Register adds an extra collector. Registering the same collector twice
// is not an error.
func (r *Registry) Register(c prometheus.Collector) error {
	if err := r.prometheusRegistry.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return nil
		}
		return fmt.Errorf("failed to register collector: %w", err)
	}
	return nil
}

// RecordReceived records a produce request appended to a topic.
func (r *Registry) RecordReceived(topic string, messages int, bytes int) {
	r.broker.MessagesIn.WithLabelValues(topic).Add(float64(messages))
	r.broker.BytesIn.WithLabelValues(topic).Add(float64(bytes))
}

// RecordFetched records bytes served to consumers of a topic.
func (r *Registry) RecordFetched(topic string, bytes int) {
	r.broker.BytesOut.WithLabelValues(topic).Add(float64(bytes))
}

// RecordRequest records the latency of a handled request.
func (r *Registry) RecordRequest(request string, latency time.Duration) {
	r.broker.RequestLatency.WithLabelValues(request).Observe(latency.Seconds())
}

// SetQueueDepth sets the current depth of a broker queue.
func (r *Registry) SetQueueDepth(queue string, depth int) {
	r.broker.QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordError increments the processing errors counter.
func (r *Registry) RecordError() {
	r.broker.ProcessingErrors.Inc()
}

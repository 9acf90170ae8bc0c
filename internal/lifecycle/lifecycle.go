// Package lifecycle implements the broker metrics reporter plugin: it owns a
// single reporter handle and guards its initialization, start and stop.
//
// Every precondition violation (double init, start before init, start while
// running, stop while idle) is a silent no-op so a management interface can
// toggle reporting freely. Errors from the underlying reporter are returned
// unchanged.
package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/source-open/metrics-kafka/internal/config"
	"github.com/source-open/metrics-kafka/internal/reporter"
	"github.com/source-open/metrics-kafka/pkg/metrics"
)

// MBeanName identifies the reporter on the host's management interface.
const MBeanName = "kafka:type=metrics.kafka.BrokerReporter"

// State is the lifecycle state of a BrokerReporter.
type State int

const (
	Uninitialized State = iota
	InitializedIdle
	Running
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case InitializedIdle:
		return "idle"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Handle is the underlying publisher driven by the lifecycle.
type Handle interface {
	Start(period time.Duration) error
	Shutdown() error
}

// Factory constructs a Handle from a registry, producer settings and an
// identifier such as "broker0".
type Factory func(reg prometheus.Gatherer, cfg config.ProducerConfig, id string) (Handle, error)

// TopicReporterFactory builds reporter.TopicReporter handles.
func TopicReporterFactory(logger *slog.Logger) Factory {
	return func(reg prometheus.Gatherer, cfg config.ProducerConfig, id string) (Handle, error) {
		tr, err := reporter.New(reg, cfg, id, reporter.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return tr, nil
	}
}

// Option configures a BrokerReporter.
type Option func(*BrokerReporter)

// WithFactory sets the handle factory.
func WithFactory(f Factory) Option {
	return func(r *BrokerReporter) { r.factory = f }
}

// WithRegistry sets the registry handles gather from.
func WithRegistry(reg prometheus.Gatherer) Option {
	return func(r *BrokerReporter) { r.registry = reg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *BrokerReporter) { r.logger = l }
}

// BrokerReporter publishes broker metrics onto a Kafka topic. The zero
// value is ready to use and reports metrics.DefaultRegistry through a
// TopicReporter.
type BrokerReporter struct {
	mu sync.Mutex

	factory  Factory
	registry prometheus.Gatherer
	logger   *slog.Logger

	props       *config.Properties
	producerCfg config.ProducerConfig
	id          string
	handle      Handle
	state       State
}

// New creates a BrokerReporter with opts applied.
func New(opts ...Option) *BrokerReporter {
	r := &BrokerReporter{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MBeanName returns the management interface name.
func (r *BrokerReporter) MBeanName() string {
	return MBeanName
}

func (r *BrokerReporter) log() *slog.Logger {
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r.logger
}

func (r *BrokerReporter) newHandle(cfg config.ProducerConfig, id string) (Handle, error) {
	if r.factory == nil {
		r.factory = TopicReporterFactory(r.log())
	}
	if r.registry == nil {
		r.registry = metrics.DefaultRegistry()
	}
	return r.factory(r.registry, cfg, id)
}

// reset drops the handle and captured configuration.
func (r *BrokerReporter) reset() {
	r.handle = nil
	r.state = Uninitialized
	r.props = nil
	r.producerCfg = config.ProducerConfig{}
	r.id = ""
}

// Init reads the broker properties, builds the reporter handle and starts
// it with the configured polling interval. Only the first successful call
// has any effect. props is not modified: the derived broker endpoint
// (localhost:<port>) is stored in a private copy under metadata.broker.list.
func (r *BrokerReporter) Init(props *config.Properties) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Uninitialized {
		return nil
	}

	port, err := props.GetInt(config.KeyPort)
	if err != nil {
		return err
	}
	brokerID, err := props.GetString(config.KeyBrokerID)
	if err != nil {
		return err
	}

	local := props.Clone()
	local.Set(config.KeyBrokerList, BrokerEndpoint(port))

	metricsCfg, err := config.ParseMetricsConfig(local)
	if err != nil {
		return err
	}
	producerCfg, err := config.NewProducerConfig(local)
	if err != nil {
		return err
	}

	id := "broker" + brokerID
	handle, err := r.newHandle(producerCfg, id)
	if err != nil {
		return err
	}
	r.props = local
	r.producerCfg = producerCfg
	r.id = id
	r.handle = handle
	r.state = InitializedIdle

	return r.startLocked(time.Duration(metricsCfg.PollingIntervalSecs) * time.Second)
}

// BrokerEndpoint returns the endpoint a broker listening on port publishes to.
func BrokerEndpoint(port int) string {
	return fmt.Sprintf("localhost:%d", port)
}

// StartReporter starts publishing every pollingPeriod. It is a no-op unless
// the reporter is initialized and idle.
func (r *BrokerReporter) StartReporter(pollingPeriod time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocked(pollingPeriod)
}

func (r *BrokerReporter) startLocked(pollingPeriod time.Duration) error {
	if r.state != InitializedIdle {
		return nil
	}
	if err := r.handle.Start(pollingPeriod); err != nil {
		return err
	}
	r.state = Running
	r.log().Info("Started metrics topic reporter",
		"reporter", r.id,
		"polling_period_secs", int64(pollingPeriod/time.Second),
	)
	return nil
}

// StopReporter shuts the running handle down and replaces it with a fresh,
// unstarted one so a later StartReporter can resume reporting. It is a
// no-op unless the reporter is running.
//
// If the replacement cannot be built the reporter returns to
// Uninitialized, forgetting its configuration, and Init may be called again.
func (r *BrokerReporter) StopReporter() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Running {
		return nil
	}

	shutdownErr := r.handle.Shutdown()
	r.state = InitializedIdle
	r.log().Info("Stopped metrics topic reporter", "reporter", r.id)

	handle, err := r.newHandle(r.producerCfg, r.id)
	if err != nil {
		r.reset()
		return errors.Join(shutdownErr, err)
	}
	r.handle = handle
	return shutdownErr
}

// Close shuts the current handle down without building a replacement and
// returns the reporter to Uninitialized. Hosts call it on exit so the idle
// handle's producer and snapshot store are released. It is a no-op before
// Init.
func (r *BrokerReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Uninitialized {
		return nil
	}

	err := r.handle.Shutdown()
	if r.state == Running {
		r.log().Info("Stopped metrics topic reporter", "reporter", r.id)
	}
	r.reset()
	return err
}

// State returns the current lifecycle state.
func (r *BrokerReporter) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ID returns the reporter identifier ("broker" + broker.id), or "" while
// uninitialized.
func (r *BrokerReporter) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// Config returns a copy of the properties captured by Init, including the
// derived metadata.broker.list. It is nil while uninitialized.
func (r *BrokerReporter) Config() *config.Properties {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.props == nil {
		return nil
	}
	return r.props.Clone()
}

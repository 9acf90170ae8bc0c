// Package plugin provides the host side of the metrics reporter contract:
// reporters register a constructor by name and the host instantiates the
// ones listed in kafka.metrics.reporters at broker start-up.
package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/source-open/metrics-kafka/internal/config"
	"github.com/source-open/metrics-kafka/internal/lifecycle"
)

// MetricsReporter is implemented by every reporter plugin.
type MetricsReporter interface {
	Init(props *config.Properties) error
}

// ManagedReporter is a reporter that can be toggled through the
// management interface.
type ManagedReporter interface {
	MetricsReporter
	MBeanName() string
	StartReporter(pollingPeriod time.Duration) error
	StopReporter() error
	State() lifecycle.State
}

// Constructor creates a fresh, uninitialized reporter.
type Constructor func() MetricsReporter

// ErrUnknownReporter is returned for names nobody registered.
var ErrUnknownReporter = errors.New("unknown metrics reporter")

// Registry maps reporter names to constructors.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor under name.
func (r *Registry) Register(name string, c Constructor) error {
	if name == "" {
		return fmt.Errorf("reporter name cannot be empty")
	}
	if c == nil {
		return fmt.Errorf("constructor for %s cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.constructors[name]; exists {
		return fmt.Errorf("reporter %s already registered", name)
	}
	r.constructors[name] = c
	return nil
}

// New instantiates the reporter registered under name.
func (r *Registry) New(name string) (MetricsReporter, error) {
	r.mu.RLock()
	c, ok := r.constructors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReporter, name)
	}
	return c(), nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BrokerReporterName is the name the topic reporter registers under.
const BrokerReporterName = "topic-reporter"

// RegisterBuiltins registers the reporters shipped with this module.
func RegisterBuiltins(r *Registry, opts ...lifecycle.Option) error {
	return r.Register(BrokerReporterName, func() MetricsReporter {
		return lifecycle.New(opts...)
	})
}

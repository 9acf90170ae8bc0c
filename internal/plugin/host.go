package plugin

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/source-open/metrics-kafka/internal/config"
)

// Host starts the reporters named in the broker properties and keeps the
// managed ones available for the management interface.
type Host struct {
	registry *Registry
	logger   *slog.Logger

	mu        sync.RWMutex
	reporters []MetricsReporter
	managed   map[string]ManagedReporter
}

// NewHost creates a host backed by registry.
func NewHost(registry *Registry, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		registry: registry,
		logger:   logger,
		managed:  make(map[string]ManagedReporter),
	}
}

// StartReporters instantiates and initializes every reporter listed in
// kafka.metrics.reporters. Initialization stops at the first failure.
func (h *Host) StartReporters(props *config.Properties) error {
	metricsCfg, err := config.ParseMetricsConfig(props)
	if err != nil {
		return err
	}

	for _, name := range metricsCfg.Reporters {
		rep, err := h.registry.New(name)
		if err != nil {
			return err
		}
		initErr := rep.Init(props)

		// Kept even when Init fails so Close can release a half-started reporter.
		h.mu.Lock()
		h.reporters = append(h.reporters, rep)
		if m, ok := rep.(ManagedReporter); ok && initErr == nil {
			h.managed[m.MBeanName()] = m
		}
		h.mu.Unlock()

		if initErr != nil {
			return fmt.Errorf("failed to initialize reporter %s: %w", name, initErr)
		}

		h.logger.Info("Metrics reporter initialized", "reporter", name)
	}
	return nil
}

// Managed returns the managed reporters keyed by MBean name.
func (h *Host) Managed() map[string]ManagedReporter {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]ManagedReporter, len(h.managed))
	for k, v := range h.managed {
		out[k] = v
	}
	return out
}

// Lookup finds a managed reporter by MBean name.
func (h *Host) Lookup(mbean string) (ManagedReporter, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.managed[mbean]
	return m, ok
}

// Close releases every reporter that implements io.Closer, logging
// failures. Reporters are closed once; later calls are no-ops.
func (h *Host) Close() {
	h.mu.Lock()
	reporters := h.reporters
	h.reporters = nil
	h.managed = make(map[string]ManagedReporter)
	h.mu.Unlock()

	for _, rep := range reporters {
		closer, ok := rep.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			h.logger.Error("Failed to close metrics reporter", "error", err)
		}
	}
}

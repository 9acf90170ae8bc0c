package lifecycle

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/source-open/metrics-kafka/internal/config"
)

// FakeHandle is a test fake for Handle.
type FakeHandle struct {
	mu          sync.Mutex
	StartCalls  []time.Duration
	Shutdowns   int
	StartErr    error
	ShutdownErr error
}

func (h *FakeHandle) Start(period time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.StartErr != nil {
		return h.StartErr
	}
	h.StartCalls = append(h.StartCalls, period)
	return nil
}

func (h *FakeHandle) Shutdown() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Shutdowns++
	return h.ShutdownErr
}

func (h *FakeHandle) starts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.StartCalls)
}

func (h *FakeHandle) shutdowns() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Shutdowns
}

// FactoryCall records the arguments of one Factory invocation.
type FactoryCall struct {
	Registry prometheus.Gatherer
	Config   config.ProducerConfig
	ID       string
}

// FakeFactory is a test fake that hands out FakeHandles.
type FakeFactory struct {
	mu      sync.Mutex
	Calls   []FactoryCall
	Handles []*FakeHandle
	// FailOn makes the n-th call (1-based) fail with Err.
	FailOn int
	Err    error
	// NewHandle customises created handles.
	NewHandle func() *FakeHandle
}

func (f *FakeFactory) Factory() Factory {
	return func(reg prometheus.Gatherer, cfg config.ProducerConfig, id string) (Handle, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.Calls = append(f.Calls, FactoryCall{Registry: reg, Config: cfg, ID: id})
		if f.FailOn == len(f.Calls) {
			return nil, f.Err
		}
		h := &FakeHandle{}
		if f.NewHandle != nil {
			h = f.NewHandle()
		}
		f.Handles = append(f.Handles, h)
		return h, nil
	}
}

// handleCountLocked is for NewHandle callbacks, which run with f.mu held.
func (f *FakeFactory) handleCountLocked() int {
	return len(f.Handles)
}

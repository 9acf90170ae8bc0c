// Package management exposes the reporters on an HTTP management interface
// so operators can inspect and toggle metrics reporting at runtime.
package management

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/source-open/metrics-kafka/internal/config"
	"github.com/source-open/metrics-kafka/internal/plugin"
	"github.com/source-open/metrics-kafka/internal/snapshot"
)

// ReporterSource provides the managed reporters.
type ReporterSource interface {
	Managed() map[string]plugin.ManagedReporter
	Lookup(mbean string) (plugin.ManagedReporter, bool)
}

// SnapshotSource reads mirrored snapshots.
type SnapshotSource interface {
	Get(ctx context.Context, reporter string) (*snapshot.Snapshot, error)
	All(ctx context.Context) (map[string]*snapshot.Snapshot, error)
}

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	reporters ReporterSource
	snapshots SnapshotSource
}

// NewHandlers creates a new handlers instance. snapshots may be nil.
func NewHandlers(reporters ReporterSource, snapshots SnapshotSource) *Handlers {
	return &Handlers{reporters: reporters, snapshots: snapshots}
}

// ReporterStatus describes one managed reporter.
type ReporterStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func status(m plugin.ManagedReporter) ReporterStatus {
	return ReporterStatus{Name: m.MBeanName(), State: m.State().String()}
}

// ListReporters returns every managed reporter and its state.
// GET /api/v1/reporters
func (h *Handlers) ListReporters(w http.ResponseWriter, r *http.Request) {
	managed := h.reporters.Managed()
	out := make([]ReporterStatus, 0, len(managed))
	for _, m := range managed {
		out = append(out, status(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (plugin.ManagedReporter, bool) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return nil, false
	}
	m, ok := h.reporters.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "reporter not found: "+name)
		return nil, false
	}
	return m, true
}

// StartReporter starts a reporter with the polling interval in seconds.
// Starting a running reporter is a no-op.
// POST /api/v1/reporters/start?name=<mbean>&interval=<secs>
func (h *Handlers) StartReporter(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	secs, err := strconv.Atoi(r.URL.Query().Get("interval"))
	if err != nil || secs <= 0 || secs > config.MaxPollingIntervalSecs {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("interval must be between 1 and %d seconds", config.MaxPollingIntervalSecs))
		return
	}

	if err := m.StartReporter(time.Duration(secs) * time.Second); err != nil {
		slog.Error("Failed to start reporter", "reporter", m.MBeanName(), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status(m))
}

// StopReporter stops a reporter. Stopping an idle reporter is a no-op.
// POST /api/v1/reporters/stop?name=<mbean>
func (h *Handlers) StopReporter(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := m.StopReporter(); err != nil {
		slog.Error("Failed to stop reporter", "reporter", m.MBeanName(), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status(m))
}

// GetSnapshots returns the mirrored snapshot of one reporter or all of them.
// GET /api/v1/snapshots[?reporter=broker0]
func (h *Handlers) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot mirror not configured")
		return
	}
	ctx := r.Context()

	if reporter := r.URL.Query().Get("reporter"); reporter != "" {
		snap, err := h.snapshots.Get(ctx, reporter)
		if errors.Is(err, snapshot.ErrNotFound) {
			writeJSON(w, http.StatusOK, &snapshot.Snapshot{Reporter: reporter, Status: snapshot.StatusOffline})
			return
		}
		if err != nil {
			slog.Error("Failed to get snapshot", "reporter", reporter, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to retrieve snapshot")
			return
		}
		writeJSON(w, http.StatusOK, snap)
		return
	}

	all, err := h.snapshots.All(ctx)
	if err != nil {
		slog.Error("Failed to get snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve snapshots")
		return
	}
	writeJSON(w, http.StatusOK, all)
}

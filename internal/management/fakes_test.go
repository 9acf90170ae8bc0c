package management

import (
	"context"
	"errors"
	"time"

	"github.com/source-open/metrics-kafka/internal/config"
	"github.com/source-open/metrics-kafka/internal/lifecycle"
	"github.com/source-open/metrics-kafka/internal/plugin"
	"github.com/source-open/metrics-kafka/internal/snapshot"
)

// FakeReporter is a test fake for plugin.ManagedReporter.
type FakeReporter struct {
	Name      string
	Current   lifecycle.State
	Periods   []time.Duration
	StartErr  error
	StopCalls int
}

func (f *FakeReporter) Init(*config.Properties) error { return nil }
func (f *FakeReporter) MBeanName() string             { return f.Name }
func (f *FakeReporter) State() lifecycle.State        { return f.Current }

func (f *FakeReporter) StartReporter(period time.Duration) error {
	if f.StartErr != nil {
		return f.StartErr
	}
	if f.Current == lifecycle.InitializedIdle {
		f.Periods = append(f.Periods, period)
		f.Current = lifecycle.Running
	}
	return nil
}

func (f *FakeReporter) StopReporter() error {
	f.StopCalls++
	if f.Current == lifecycle.Running {
		f.Current = lifecycle.InitializedIdle
	}
	return nil
}

// FakeSource is a test fake for ReporterSource.
type FakeSource struct {
	Reporters map[string]plugin.ManagedReporter
}

func (f *FakeSource) Managed() map[string]plugin.ManagedReporter { return f.Reporters }

func (f *FakeSource) Lookup(mbean string) (plugin.ManagedReporter, bool) {
	m, ok := f.Reporters[mbean]
	return m, ok
}

// FakeSnapshots is a test fake for SnapshotSource.
type FakeSnapshots struct {
	Snapshots map[string]*snapshot.Snapshot
	Err       error
}

func (f *FakeSnapshots) Get(ctx context.Context, reporter string) (*snapshot.Snapshot, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	snap, ok := f.Snapshots[reporter]
	if !ok {
		return nil, snapshot.ErrNotFound
	}
	return snap, nil
}

func (f *FakeSnapshots) All(ctx context.Context) (map[string]*snapshot.Snapshot, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Snapshots, nil
}

var errRedisDown = errors.New("redis down")

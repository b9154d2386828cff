package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"streamwatch/internal/models"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

type sinkRecorder struct {
	mu      sync.Mutex
	samples []models.HistoricalMetrics
}

func (s *sinkRecorder) InsertSample(_ context.Context, m models.HistoricalMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, m)
	return nil
}

func (s *sinkRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

func TestSampleRecorderPersistsEvents(t *testing.T) {
	sink := &sinkRecorder{}
	r := NewSampleRecorder(sink, 4, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	at := time.UnixMilli(1_700_000_000_000)
	r.Observe(PollEvent{Snapshot: *snapshotWithGPU(40, 60), At: at})
	r.Observe(PollEvent{Snapshot: *snapshot(50), At: at.Add(time.Second)})

	waitFor(t, "samples persisted", func() bool { return sink.count() == 2 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	gpu := 60.0
	want := []models.HistoricalMetrics{
		{Timestamp: at.UnixMilli(), CPUPercent: 40, MemoryPercent: 50, GPUPercent: &gpu},
		{Timestamp: at.Add(time.Second).UnixMilli(), CPUPercent: 50, MemoryPercent: 50},
	}
	if diff := cmp.Diff(want, sink.samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestSampleRecorderDropsWhenFull(t *testing.T) {
	sink := &sinkRecorder{}
	r := NewSampleRecorder(sink, 1, zap.NewNop())

	// Run is not started, so the second event has nowhere to go.
	r.Observe(PollEvent{Snapshot: *snapshot(1), At: time.Now()})
	r.Observe(PollEvent{Snapshot: *snapshot(2), At: time.Now()})

	if got := len(r.queue); got != 1 {
		t.Errorf("queue len = %d, want 1", got)
	}
}

type fakePruner struct {
	cutoffs []time.Time
	err     error
}

func (p *fakePruner) DeleteSamplesOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoffs = append(p.cutoffs, cutoff)
	return 3, p.err
}

func TestRetentionPrune(t *testing.T) {
	pruner := &fakePruner{}
	svc := NewRetentionService(pruner, 7, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

	svc.Prune(context.Background())

	want := []time.Time{time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)}
	if diff := cmp.Diff(want, pruner.cutoffs); diff != "" {
		t.Errorf("cutoffs mismatch (-want +got):\n%s", diff)
	}
}

func TestRetentionPruneFailureIsLogged(t *testing.T) {
	pruner := &fakePruner{err: errors.New("locked")}
	svc := NewRetentionService(pruner, 0, zap.NewNop())

	// Must not panic; the error is only logged.
	svc.Prune(context.Background())
	if svc.retentionDays != 14 {
		t.Errorf("retentionDays = %d, want default 14", svc.retentionDays)
	}
}

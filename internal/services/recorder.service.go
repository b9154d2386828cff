package services

import (
	"context"
	"time"

	"streamwatch/internal/models"

	"go.uber.org/zap"
)

// SampleSink persists polled samples.
type SampleSink interface {
	InsertSample(ctx context.Context, m models.HistoricalMetrics) error
}

// SampleRecorder writes every applied snapshot to a SampleSink. Observe is
// called on the poller's apply loop, so it only enqueues; a full queue drops
// the sample.
type SampleRecorder struct {
	sink  SampleSink
	log   *zap.Logger
	queue chan models.HistoricalMetrics
}

// NewSampleRecorder creates a recorder with room for buffer pending samples.
func NewSampleRecorder(sink SampleSink, buffer int, logger *zap.Logger) *SampleRecorder {
	if buffer <= 0 {
		buffer = 64
	}
	return &SampleRecorder{
		sink:  sink,
		log:   logger,
		queue: make(chan models.HistoricalMetrics, buffer),
	}
}

// Observe converts a poll event into a sample and enqueues it.
func (r *SampleRecorder) Observe(ev PollEvent) {
	sample := models.HistoricalMetrics{
		Timestamp:           ev.At.UnixMilli(),
		CPUPercent:          ev.Snapshot.CPU.UsagePercent,
		MemoryPercent:       ev.Snapshot.Memory.UsagePercent,
		UploadBytesPerSec:   ev.Snapshot.Network.UploadBytesPerSec,
		DownloadBytesPerSec: ev.Snapshot.Network.DownloadBytesPerSec,
	}
	if ev.Snapshot.GPU != nil {
		gpu := ev.Snapshot.GPU.UsagePercent
		sample.GPUPercent = &gpu
	}

	select {
	case r.queue <- sample:
	default:
		r.log.Debug("sample queue full, dropping sample", zap.Int64("ts", sample.Timestamp))
	}
}

// Run drains the queue until ctx is cancelled.
func (r *SampleRecorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sample := <-r.queue:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := r.sink.InsertSample(writeCtx, sample); err != nil {
				r.log.Warn("failed to persist sample", zap.Error(err))
			}
			cancel()
		}
	}
}

// SamplePruner deletes samples older than a cutoff.
type SamplePruner interface {
	DeleteSamplesOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionService prunes old samples once at start and then daily.
type RetentionService struct {
	pruner        SamplePruner
	retentionDays int
	log           *zap.Logger
	now           func() time.Time
}

// NewRetentionService keeps days of samples; days <= 0 means 14.
func NewRetentionService(pruner SamplePruner, days int, logger *zap.Logger) *RetentionService {
	if days <= 0 {
		days = 14
	}
	return &RetentionService{pruner: pruner, retentionDays: days, log: logger, now: time.Now}
}

// Prune runs one cleanup pass.
func (s *RetentionService) Prune(ctx context.Context) {
	cutoff := s.now().UTC().AddDate(0, 0, -s.retentionDays)
	n, err := s.pruner.DeleteSamplesOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("retention cleanup failed", zap.Error(err))
		return
	}
	s.log.Info("retention cleanup completed", zap.Time("cutoff", cutoff), zap.Int64("deleted", n))
}

// Run prunes immediately and then every 24 hours until ctx is cancelled.
func (s *RetentionService) Run(ctx context.Context) error {
	s.Prune(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Prune(ctx)
		}
	}
}

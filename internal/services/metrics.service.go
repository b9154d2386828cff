package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"streamwatch/internal/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"
)

// Source produces metric snapshots. Both calls may fail independently.
type Source interface {
	// FetchSystemMetrics returns the current host snapshot or an error
	// wrapping models.ErrTransport.
	FetchSystemMetrics(ctx context.Context) (*models.SystemMetrics, error)

	// FetchProcessMetrics returns nil, nil when the monitored process is
	// not running.
	FetchProcessMetrics(ctx context.Context) (*models.ProcessMetrics, error)
}

// HostSource samples the local machine through gopsutil.
type HostSource struct {
	gpu       GPUProbe
	processes *ProcessMatcher
	log       *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	cpuName  string
	lastSent uint64
	lastRecv uint64
	lastTime time.Time
}

// NewHostSource creates a Source for the local machine. gpu may be nil when
// GPU sampling is disabled.
func NewHostSource(gpu GPUProbe, processes *ProcessMatcher, logger *zap.Logger) *HostSource {
	return &HostSource{
		gpu:       gpu,
		processes: processes,
		log:       logger,
		now:       time.Now,
	}
}

// FetchSystemMetrics returns CPU, memory, network and optional GPU metrics.
func (s *HostSource) FetchSystemMetrics(ctx context.Context) (*models.SystemMetrics, error) {
	cpuStatus, err := s.cpuUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: cpu: %v", models.ErrTransport, err)
	}

	memStatus, err := memoryUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: memory: %v", models.ErrTransport, err)
	}

	rates, err := s.networkRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: network: %v", models.ErrTransport, err)
	}

	snap := &models.SystemMetrics{
		CPU:       *cpuStatus,
		Memory:    *memStatus,
		Network:   rates,
		Timestamp: s.now(),
	}

	if s.gpu != nil {
		gpu, err := s.gpu.Probe(ctx)
		switch {
		case err == nil:
			snap.GPU = gpu
		case errors.Is(err, models.ErrDataUnavailable):
		default:
			s.log.Debug("gpu probe failed", zap.Error(err))
		}
	}

	return snap, nil
}

// FetchProcessMetrics aggregates the monitored capture process.
func (s *HostSource) FetchProcessMetrics(ctx context.Context) (*models.ProcessMetrics, error) {
	if s.processes == nil {
		return nil, nil
	}
	return s.processes.Collect(ctx)
}

func (s *HostSource) cpuUsage(ctx context.Context) (*models.CPUStatus, error) {
	percentage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	if len(percentage) == 0 {
		return nil, errors.New("no cpu samples")
	}

	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		s.log.Debug("per-core cpu usage unavailable", zap.Error(err))
		perCore = nil
	}
	for i := range perCore {
		perCore[i] = models.ClampPercent(perCore[i])
	}

	coreCount, err := cpu.CountsWithContext(ctx, true)
	if err != nil || coreCount <= 0 {
		coreCount = len(perCore)
	}

	return &models.CPUStatus{
		UsagePercent: models.ClampPercent(percentage[0]),
		CoreCount:    coreCount,
		PerCore:      perCore,
		Name:         s.modelName(ctx),
	}, nil
}

// modelName is read once; the CPU model does not change while running.
func (s *HostSource) modelName(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cpuName != "" {
		return s.cpuName
	}
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 {
		return ""
	}
	s.cpuName = infos[0].ModelName
	return s.cpuName
}

func memoryUsage(ctx context.Context) (*models.MemoryStatus, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return &models.MemoryStatus{
		UsedBytes:      vm.Used,
		TotalBytes:     vm.Total,
		AvailableBytes: vm.Available,
		UsagePercent:   models.ClampPercent(vm.UsedPercent),
	}, nil
}

// networkRates derives bytes/sec from the previous counter sample. The first
// call and counter resets report 0.
func (s *HostSource) networkRates(ctx context.Context) (models.NetworkRates, error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return models.NetworkRates{}, err
	}

	var totalSent, totalRecv uint64
	for _, c := range counters {
		totalSent += c.BytesSent
		totalRecv += c.BytesRecv
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rates := models.NetworkRates{}
	elapsed := now.Sub(s.lastTime).Seconds()
	if !s.lastTime.IsZero() && elapsed > 0 {
		rates.UploadBytesPerSec = counterRate(s.lastSent, totalSent, elapsed)
		rates.DownloadBytesPerSec = counterRate(s.lastRecv, totalRecv, elapsed)
	}

	s.lastSent = totalSent
	s.lastRecv = totalRecv
	s.lastTime = now

	return rates, nil
}

func counterRate(prev, cur uint64, seconds float64) float64 {
	if cur < prev || seconds <= 0 {
		return 0
	}
	return float64(cur-prev) / seconds
}

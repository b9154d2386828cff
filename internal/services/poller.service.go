package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"streamwatch/internal/models"

	"go.uber.org/zap"
)

// ErrPollerActive is returned by Acquire while a previous handle is live.
var ErrPollerActive = errors.New("poller already running")

// PollState is a copy of the poller's displayable state.
type PollState struct {
	LastSnapshot *models.SystemMetrics  `json:"last_snapshot"`
	Process      *models.ProcessMetrics `json:"process"`
	LastUpdate   time.Time              `json:"last_update"`
	Error        string                 `json:"error,omitempty"`
	Running      bool                   `json:"running"`
}

// PollStats counts fetch outcomes since the poller was created.
type PollStats struct {
	SystemFetches  uint64 `json:"system_fetches"`
	ProcessFetches uint64 `json:"process_fetches"`
	Failures       uint64 `json:"failures"`
	Discarded      uint64 `json:"discarded"`
}

// PollEvent is delivered to observers after each applied system snapshot.
type PollEvent struct {
	Snapshot models.SystemMetrics
	Process  *models.ProcessMetrics
	At       time.Time
}

// Ticker abstracts time.Ticker so tests can fire ticks by hand.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type stdTicker struct{ *time.Ticker }

func (t stdTicker) Chan() <-chan time.Time { return t.C }

func newStdTicker(d time.Duration) Ticker { return stdTicker{time.NewTicker(d)} }

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithTicker replaces the ticker factory.
func WithTicker(factory func(time.Duration) Ticker) PollerOption {
	return func(p *Poller) { p.newTicker = factory }
}

// WithClock replaces time.Now for LastUpdate stamps.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.now = now }
}

// WithFetchTimeout bounds each individual fetch. Zero disables the bound.
func WithFetchTimeout(d time.Duration) PollerOption {
	return func(p *Poller) { p.fetchTimeout = d }
}

// Poller drives periodic acquisition from a Source into a HistoryBuffer.
//
// Each fetch runs in its own goroutine. Results are applied by a single loop
// per handle, which is the only writer of state and history. Results are
// tagged with a per-kind sequence number and anything older than the last
// applied result is discarded.
type Poller struct {
	source       Source
	history      *HistoryBuffer
	log          *zap.Logger
	now          func() time.Time
	newTicker    func(time.Duration) Ticker
	fetchTimeout time.Duration

	mu        sync.RWMutex
	state     PollState
	observers []func(PollEvent)
	active    *PollHandle

	systemFetches  atomic.Uint64
	processFetches atomic.Uint64
	failures       atomic.Uint64
	discarded      atomic.Uint64
}

// NewPoller creates a stopped poller.
func NewPoller(source Source, history *HistoryBuffer, logger *zap.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		source:       source,
		history:      history,
		log:          logger,
		now:          time.Now,
		newTicker:    newStdTicker,
		fetchTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// History returns the buffer the poller writes to.
func (p *Poller) History() *HistoryBuffer {
	return p.history
}

// OnSnapshot registers fn to run after each applied system snapshot. fn runs
// on the apply loop and must not block.
func (p *Poller) OnSnapshot(fn func(PollEvent)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

// State returns a deep copy of the current state.
func (p *Poller) State() PollState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := p.state
	if p.state.LastSnapshot != nil {
		snap := p.state.LastSnapshot.Clone()
		out.LastSnapshot = &snap
	}
	out.Process = p.state.Process.Clone()
	return out
}

// Stats returns the fetch counters.
func (p *Poller) Stats() PollStats {
	return PollStats{
		SystemFetches:  p.systemFetches.Load(),
		ProcessFetches: p.processFetches.Load(),
		Failures:       p.failures.Load(),
		Discarded:      p.discarded.Load(),
	}
}

// PollHandle owns one running polling session. Stop releases it.
type PollHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop cancels both timers and waits until no further state mutation can
// happen. Safe to call more than once.
func (h *PollHandle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the handle has been fully released.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// Acquire starts polling: one immediate fetch of each kind, then system
// metrics every interval and process metrics every 2×interval. The handle is
// released by Stop or when ctx is cancelled.
func (p *Poller) Acquire(ctx context.Context, interval time.Duration) (*PollHandle, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", interval)
	}

	p.mu.Lock()
	if p.active != nil {
		p.mu.Unlock()
		return nil, ErrPollerActive
	}
	runCtx, cancel := context.WithCancel(ctx)
	h := &PollHandle{cancel: cancel, done: make(chan struct{})}
	p.active = h
	p.state.Running = true
	p.mu.Unlock()

	results := make(chan fetchResult, 16)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.dispatch(runCtx, interval, results)
	}()
	go func() {
		defer wg.Done()
		p.applyLoop(runCtx, results)
	}()
	go func() {
		wg.Wait()
		p.release(h)
		close(h.done)
	}()

	p.log.Info("poller started", zap.Duration("interval", interval))
	return h, nil
}

func (p *Poller) release(h *PollHandle) {
	p.mu.Lock()
	if p.active == h {
		p.active = nil
		p.state.Running = false
	}
	p.mu.Unlock()
	p.log.Info("poller stopped")
}

type fetchKind int

const (
	fetchSystem fetchKind = iota
	fetchProcess
)

func (k fetchKind) String() string {
	if k == fetchSystem {
		return "system"
	}
	return "process"
}

type fetchResult struct {
	kind    fetchKind
	seq     uint64
	system  *models.SystemMetrics
	process *models.ProcessMetrics
	err     error
}

// dispatch owns both timers and numbers every fetch it starts.
func (p *Poller) dispatch(ctx context.Context, interval time.Duration, results chan<- fetchResult) {
	var systemSeq, processSeq uint64

	fireSystem := func() {
		systemSeq++
		p.systemFetches.Add(1)
		go p.fetch(ctx, fetchSystem, systemSeq, results)
	}
	fireProcess := func() {
		processSeq++
		p.processFetches.Add(1)
		go p.fetch(ctx, fetchProcess, processSeq, results)
	}

	fireSystem()
	fireProcess()

	systemTicker := p.newTicker(interval)
	defer systemTicker.Stop()
	processTicker := p.newTicker(2 * interval)
	defer processTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-systemTicker.Chan():
			fireSystem()
		case <-processTicker.Chan():
			fireProcess()
		}
	}
}

func (p *Poller) fetch(ctx context.Context, kind fetchKind, seq uint64, results chan<- fetchResult) {
	fetchCtx := ctx
	if p.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()
	}

	r := fetchResult{kind: kind, seq: seq}
	switch kind {
	case fetchSystem:
		r.system, r.err = p.source.FetchSystemMetrics(fetchCtx)
	case fetchProcess:
		r.process, r.err = p.source.FetchProcessMetrics(fetchCtx)
	}

	select {
	case results <- r:
	case <-ctx.Done():
	}
}

// applyLoop applies results in receipt order, skipping stale ones.
func (p *Poller) applyLoop(ctx context.Context, results <-chan fetchResult) {
	var lastSystem, lastProcess uint64

	for {
		select {
		case <-ctx.Done():
			return
		case r := <-results:
			if ctx.Err() != nil {
				return
			}

			last := &lastSystem
			if r.kind == fetchProcess {
				last = &lastProcess
			}
			if r.seq <= *last {
				p.discarded.Add(1)
				p.log.Debug("discarding stale fetch result",
					zap.Stringer("kind", r.kind),
					zap.Uint64("seq", r.seq),
					zap.Uint64("last_applied", *last),
				)
				continue
			}
			*last = r.seq

			if r.kind == fetchSystem {
				p.applySystem(r)
			} else {
				p.applyProcess(r)
			}
		}
	}
}

func (p *Poller) applySystem(r fetchResult) {
	if r.err == nil && r.system == nil {
		r.err = fmt.Errorf("%w: empty snapshot", models.ErrTransport)
	}
	if r.err != nil {
		p.failures.Add(1)
		msg := fmt.Sprintf("failed to fetch system metrics: %v", r.err)
		p.mu.Lock()
		p.state.Error = msg
		p.mu.Unlock()
		p.log.Warn("system metrics fetch failed", zap.Uint64("seq", r.seq), zap.Error(r.err))
		return
	}

	snap := r.system.Clone()
	h := p.history

	h.Append(models.ChannelCPU, snap.CPU.UsagePercent)
	h.Append(models.ChannelMemory, snap.Memory.UsagePercent)
	h.Append(models.ChannelNetUp, snap.Network.UploadBytesPerSec)
	h.Append(models.ChannelNetDown, snap.Network.DownloadBytesPerSec)

	if snap.GPU != nil {
		h.Append(models.ChannelGPU, snap.GPU.UsagePercent)
		h.Append(models.ChannelGPUMemory, snap.GPU.MemoryPercent())
		h.Append(models.ChannelEncoder, snap.GPU.EncoderUsage)
	} else {
		h.Reset(models.ChannelGPU)
		h.Reset(models.ChannelGPUMemory)
		h.Reset(models.ChannelEncoder)
	}

	now := p.now()

	p.mu.Lock()
	p.state.LastSnapshot = &snap
	p.state.Error = ""
	p.state.LastUpdate = now
	process := p.state.Process.Clone()
	observers := p.observers
	p.mu.Unlock()

	event := PollEvent{Snapshot: snap.Clone(), Process: process, At: now}
	for _, fn := range observers {
		fn(event)
	}
}

// applyProcess treats any failure as "process not running".
func (p *Poller) applyProcess(r fetchResult) {
	h := p.history

	if r.err != nil || r.process == nil {
		if r.err != nil {
			p.log.Debug("process metrics unavailable", zap.Error(r.err))
		}
		h.Reset(models.ChannelProcessCPU)
		h.Reset(models.ChannelProcessMemory)
		p.mu.Lock()
		p.state.Process = nil
		p.mu.Unlock()
		return
	}

	proc := r.process.Clone()
	h.Append(models.ChannelProcessCPU, proc.CPUPercent)
	h.Append(models.ChannelProcessMemory, float64(proc.MemoryBytes))

	p.mu.Lock()
	p.state.Process = proc
	p.mu.Unlock()
}

package services

import (
	"sync"
	"time"

	"streamwatch/internal/models"
)

// DefaultHistoryCapacity keeps one minute of points at 1 Hz polling.
const DefaultHistoryCapacity = 60

// HistoryBuffer stores a bounded, chronologically ordered series per channel.
//
// Writes come only from the poller's apply loop. The lock exists for the
// HTTP and WebSocket readers.
type HistoryBuffer struct {
	mu       sync.RWMutex
	channels map[models.Channel][]models.TimeSeriesPoint
	capacity int
	now      func() time.Time
}

// NewHistoryBuffer creates a buffer holding at most capacity points per channel.
func NewHistoryBuffer(capacity int) *HistoryBuffer {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &HistoryBuffer{
		channels: make(map[models.Channel][]models.TimeSeriesPoint),
		capacity: capacity,
		now:      time.Now,
	}
}

// Capacity returns the per-channel bound.
func (hb *HistoryBuffer) Capacity() int {
	return hb.capacity
}

// Append stamps value with the current time and adds it to channel, dropping
// the oldest points once the channel exceeds capacity.
func (hb *HistoryBuffer) Append(channel models.Channel, value float64) {
	point := models.TimeSeriesPoint{
		Timestamp: hb.now().UnixMilli(),
		Value:     value,
	}

	hb.mu.Lock()
	defer hb.mu.Unlock()

	series := append(hb.channels[channel], point)
	if overflow := len(series) - hb.capacity; overflow > 0 {
		// Copy into a fresh slice so the dropped prefix can be collected.
		trimmed := make([]models.TimeSeriesPoint, hb.capacity, hb.capacity+1)
		copy(trimmed, series[overflow:])
		series = trimmed
	}
	hb.channels[channel] = series
}

// Reset empties channel. Used when an optional metric disappears so stale
// values are never shown next to fresh ones.
func (hb *HistoryBuffer) Reset(channel models.Channel) {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	delete(hb.channels, channel)
}

// Len returns the number of points held for channel.
func (hb *HistoryBuffer) Len(channel models.Channel) int {
	hb.mu.RLock()
	defer hb.mu.RUnlock()
	return len(hb.channels[channel])
}

// Points returns a copy of channel in chronological order.
func (hb *HistoryBuffer) Points(channel models.Channel) []models.TimeSeriesPoint {
	hb.mu.RLock()
	defer hb.mu.RUnlock()

	src := hb.channels[channel]
	out := make([]models.TimeSeriesPoint, len(src))
	copy(out, src)
	return out
}

// Since returns the points of channel stamped within the last d.
func (hb *HistoryBuffer) Since(channel models.Channel, d time.Duration) []models.TimeSeriesPoint {
	cutoff := hb.now().Add(-d).UnixMilli()

	hb.mu.RLock()
	defer hb.mu.RUnlock()

	filtered := []models.TimeSeriesPoint{}
	for _, p := range hb.channels[channel] {
		if p.Timestamp > cutoff {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Snapshot returns a copy of every known channel. Empty channels are present
// with an empty slice so consumers can zip them safely.
func (hb *HistoryBuffer) Snapshot() map[models.Channel][]models.TimeSeriesPoint {
	hb.mu.RLock()
	defer hb.mu.RUnlock()

	window := make(map[models.Channel][]models.TimeSeriesPoint, len(models.Channels))
	for _, c := range models.Channels {
		src := hb.channels[c]
		out := make([]models.TimeSeriesPoint, len(src))
		copy(out, src)
		window[c] = out
	}
	return window
}

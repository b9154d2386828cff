package models

// CPUStatus represents CPU usage information
type CPUStatus struct {
	UsagePercent float64   `json:"usage_percent"`
	CoreCount    int       `json:"core_count"`
	PerCore      []float64 `json:"per_core,omitempty"`
	Name         string    `json:"name"`
}

// MemoryStatus represents physical memory usage
type MemoryStatus struct {
	UsedBytes      uint64  `json:"used_bytes"`
	TotalBytes     uint64  `json:"total_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsagePercent   float64 `json:"usage_percent"`
}

// GPUStatus represents the primary GPU. It is nil on a SystemMetrics when no GPU was detected.
type GPUStatus struct {
	Name             string  `json:"name"`
	UsagePercent     float64 `json:"usage_percent"`
	MemoryUsedBytes  uint64  `json:"memory_used_bytes"`
	MemoryTotalBytes uint64  `json:"memory_total_bytes"`
	EncoderUsage     float64 `json:"encoder_usage"`
}

// MemoryPercent returns the share of GPU memory in use, or 0 when the total is unknown.
func (g *GPUStatus) MemoryPercent() float64 {
	if g == nil || g.MemoryTotalBytes == 0 {
		return 0
	}
	return float64(g.MemoryUsedBytes) / float64(g.MemoryTotalBytes) * 100
}

package models

// ProcessMetrics aggregates every running instance of the monitored capture process.
// A nil *ProcessMetrics means the process is not running.
type ProcessMetrics struct {
	Name        string  `json:"name"`
	PIDs        []int32 `json:"pids"`
	CPUPercent  float64 `json:"cpu_percent"`
	MemoryBytes uint64  `json:"memory_bytes"`
}

// Clone returns a deep copy of p, or nil.
func (p *ProcessMetrics) Clone() *ProcessMetrics {
	if p == nil {
		return nil
	}
	out := *p
	out.PIDs = append([]int32(nil), p.PIDs...)
	return &out
}

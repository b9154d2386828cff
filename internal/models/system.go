package models

import "time"

// SystemMetrics is one snapshot of host metrics as produced by a Source.
type SystemMetrics struct {
	CPU       CPUStatus    `json:"cpu"`
	Memory    MemoryStatus `json:"memory"`
	GPU       *GPUStatus   `json:"gpu"`
	Network   NetworkRates `json:"network"`
	Timestamp time.Time    `json:"timestamp"`
}

// ClampPercent caps v to [0,100]. Producers already clamp, but values are
// clamped again before display.
func ClampPercent(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// Clone returns a deep copy so readers never share slices or pointers with
// the poller.
func (m SystemMetrics) Clone() SystemMetrics {
	out := m
	if m.CPU.PerCore != nil {
		out.CPU.PerCore = append([]float64(nil), m.CPU.PerCore...)
	}
	if m.GPU != nil {
		gpu := *m.GPU
		out.GPU = &gpu
	}
	return out
}

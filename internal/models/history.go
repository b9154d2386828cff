package models

// Channel names one bounded metric series in the history buffer.
type Channel string

const (
	ChannelCPU           Channel = "cpu"
	ChannelMemory        Channel = "memory"
	ChannelGPU           Channel = "gpu"
	ChannelGPUMemory     Channel = "gpu_memory"
	ChannelEncoder       Channel = "encoder"
	ChannelNetUp         Channel = "net_up"
	ChannelNetDown       Channel = "net_down"
	ChannelProcessCPU    Channel = "process_cpu"
	ChannelProcessMemory Channel = "process_memory"
)

// Channels lists every known channel in display order.
var Channels = []Channel{
	ChannelCPU,
	ChannelMemory,
	ChannelGPU,
	ChannelGPUMemory,
	ChannelEncoder,
	ChannelNetUp,
	ChannelNetDown,
	ChannelProcessCPU,
	ChannelProcessMemory,
}

// ParseChannel reports whether name is a known channel.
func ParseChannel(name string) (Channel, bool) {
	for _, c := range Channels {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// TimeSeriesPoint represents a single point in time for a metric
type TimeSeriesPoint struct {
	Timestamp int64   `json:"timestamp"` // epoch millis
	Value     float64 `json:"value"`
}

// HistoricalMetrics is one persisted polled sample.
type HistoricalMetrics struct {
	Timestamp           int64    `json:"timestamp"` // epoch millis
	CPUPercent          float64  `json:"cpu_percent"`
	MemoryPercent       float64  `json:"memory_percent"`
	GPUPercent          *float64 `json:"gpu_percent,omitempty"`
	UploadBytesPerSec   float64  `json:"upload_bytes_per_sec"`
	DownloadBytesPerSec float64  `json:"download_bytes_per_sec"`
}

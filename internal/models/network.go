package models

// NetworkRates represents aggregate throughput across all interfaces
type NetworkRates struct {
	UploadBytesPerSec   float64 `json:"upload_bytes_per_sec"`   // bytes/sec
	DownloadBytesPerSec float64 `json:"download_bytes_per_sec"` // bytes/sec
}

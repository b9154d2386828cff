package models

import "time"

// SessionSummary holds the aggregate statistics of one finished recording
// or streaming session. It is written once at session end and never edited.
type SessionSummary struct {
	ID                 string  `json:"session_id"`
	StartTime          int64   `json:"start_time"` // epoch millis
	EndTime            int64   `json:"end_time"`   // epoch millis
	AvgCPU             float64 `json:"avg_cpu"`
	AvgGPU             float64 `json:"avg_gpu"`
	TotalDroppedFrames uint64  `json:"total_dropped_frames"`
	PeakBitrate        uint64  `json:"peak_bitrate"`
	QualityScore       float64 `json:"quality_score"`
}

// Duration returns the wall-clock length of the session.
func (s SessionSummary) Duration() time.Duration {
	if s.EndTime <= s.StartTime {
		return 0
	}
	return time.Duration(s.EndTime-s.StartTime) * time.Millisecond
}

// ComparisonMetric names one compared SessionSummary field.
type ComparisonMetric string

const (
	MetricQualityScore       ComparisonMetric = "quality_score"
	MetricAvgCPU             ComparisonMetric = "avg_cpu"
	MetricAvgGPU             ComparisonMetric = "avg_gpu"
	MetricTotalDroppedFrames ComparisonMetric = "total_dropped_frames"
	MetricPeakBitrate        ComparisonMetric = "peak_bitrate"
)

// Verdict classifies a metric delta by its polarity.
type Verdict string

const (
	VerdictImprovement Verdict = "improvement"
	VerdictDegradation Verdict = "degradation"
	VerdictNeutral     Verdict = "neutral"
)

// MetricComparison is the delta of one metric between two sessions.
type MetricComparison struct {
	Metric         ComparisonMetric `json:"metric"`
	Before         float64          `json:"before"`
	After          float64          `json:"after"`
	Diff           float64          `json:"diff"`
	DiffPercent    float64          `json:"diff_percent"`
	HigherIsBetter bool             `json:"higher_is_better"`
	IsImprovement  bool             `json:"is_improvement"`
	IsDegradation  bool             `json:"is_degradation"`
	Verdict        Verdict          `json:"verdict"`
}

// ComparisonResult is derived from two sessions on demand and never stored.
type ComparisonResult struct {
	Before       string             `json:"before"`
	After        string             `json:"after"`
	Metrics      []MetricComparison `json:"metrics"`
	Improvements []string           `json:"improvements"`
	Degradations []string           `json:"degradations"`
	Summary      []string           `json:"summary"`
}

// Metric returns the comparison for m and whether it was computed.
func (r ComparisonResult) Metric(m ComparisonMetric) (MetricComparison, bool) {
	for _, mc := range r.Metrics {
		if mc.Metric == m {
			return mc, true
		}
	}
	return MetricComparison{}, false
}

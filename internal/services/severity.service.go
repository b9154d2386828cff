package services

import (
	"fmt"

	"streamwatch/internal/models"
)

// Thresholds is the warning/critical pair for one domain. Boundary values
// belong to the higher tier.
type Thresholds struct {
	Warning  float64 `json:"warning" mapstructure:"warning"`
	Critical float64 `json:"critical" mapstructure:"critical"`
}

// ThresholdTable maps each domain to its thresholds.
type ThresholdTable map[models.Domain]Thresholds

// DefaultThresholds returns the canonical table.
//
// Older dashboards used memory {80,95} and gpu {85,95}; override through
// configuration if those are wanted.
func DefaultThresholds() ThresholdTable {
	return ThresholdTable{
		models.DomainCPU:     {Warning: 70, Critical: 90},
		models.DomainMemory:  {Warning: 75, Critical: 90},
		models.DomainGPU:     {Warning: 80, Critical: 95},
		models.DomainEncoder: {Warning: 70, Critical: 90},
	}
}

// Classifier maps (domain, value) pairs to severity tiers.
type Classifier struct {
	table ThresholdTable
}

// NewClassifier validates table and fills missing domains from the defaults.
func NewClassifier(table ThresholdTable) (*Classifier, error) {
	merged := DefaultThresholds()
	for domain, th := range table {
		if th.Warning >= th.Critical {
			return nil, fmt.Errorf("thresholds for %s: warning %.1f must be below critical %.1f", domain, th.Warning, th.Critical)
		}
		merged[domain] = th
	}
	return &Classifier{table: merged}, nil
}

// Thresholds returns a copy of the active table.
func (c *Classifier) Thresholds() ThresholdTable {
	out := make(ThresholdTable, len(c.table))
	for k, v := range c.table {
		out[k] = v
	}
	return out
}

// Classify is total over all float64 values. NaN and unknown domains are normal.
func (c *Classifier) Classify(domain models.Domain, value float64) models.Severity {
	th, ok := c.table[domain]
	if !ok {
		return models.SeverityNormal
	}
	switch {
	case value >= th.Critical:
		return models.SeverityCritical
	case value >= th.Warning:
		return models.SeverityWarning
	default:
		return models.SeverityNormal
	}
}

// SeverityReport holds the tiers of one snapshot. GPU and Encoder are nil
// when the snapshot has no GPU.
type SeverityReport struct {
	CPU     models.Severity  `json:"cpu"`
	Memory  models.Severity  `json:"memory"`
	GPU     *models.Severity `json:"gpu,omitempty"`
	Encoder *models.Severity `json:"encoder,omitempty"`
	Worst   models.Severity  `json:"worst"`
}

// ClassifySnapshot classifies every domain present in m.
func (c *Classifier) ClassifySnapshot(m models.SystemMetrics) SeverityReport {
	r := SeverityReport{
		CPU:    c.Classify(models.DomainCPU, m.CPU.UsagePercent),
		Memory: c.Classify(models.DomainMemory, m.Memory.UsagePercent),
	}
	r.Worst = max(r.CPU, r.Memory)

	if m.GPU != nil {
		gpu := c.Classify(models.DomainGPU, m.GPU.UsagePercent)
		enc := c.Classify(models.DomainEncoder, m.GPU.EncoderUsage)
		r.GPU = &gpu
		r.Encoder = &enc
		r.Worst = max(r.Worst, gpu, enc)
	}
	return r
}

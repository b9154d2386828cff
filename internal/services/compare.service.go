package services

import (
	"fmt"
	"math"

	"streamwatch/internal/models"

	"github.com/dustin/go-humanize"
)

// NoDifferenceMessage is the only summary line when nothing changed.
const NoDifferenceMessage = "No significant difference between the two sessions."

type metricDef struct {
	metric         models.ComparisonMetric
	higherIsBetter bool
	value          func(models.SessionSummary) float64
}

// comparedMetrics fixes the order of the result's Metrics slice.
var comparedMetrics = []metricDef{
	{models.MetricQualityScore, true, func(s models.SessionSummary) float64 { return s.QualityScore }},
	{models.MetricAvgCPU, false, func(s models.SessionSummary) float64 { return s.AvgCPU }},
	{models.MetricAvgGPU, false, func(s models.SessionSummary) float64 { return s.AvgGPU }},
	{models.MetricTotalDroppedFrames, false, func(s models.SessionSummary) float64 { return float64(s.TotalDroppedFrames) }},
	{models.MetricPeakBitrate, true, func(s models.SessionSummary) float64 { return float64(s.PeakBitrate) }},
}

// summarizedMetrics is the order summary sentences are emitted in. Peak
// bitrate is reported in Metrics but does not produce a sentence.
var summarizedMetrics = []models.ComparisonMetric{
	models.MetricQualityScore,
	models.MetricAvgCPU,
	models.MetricAvgGPU,
	models.MetricTotalDroppedFrames,
}

// Compare diffs two sessions, treating after as the later one. It is pure:
// nothing is cached or stored.
func Compare(before, after models.SessionSummary) models.ComparisonResult {
	result := models.ComparisonResult{
		Before:       before.ID,
		After:        after.ID,
		Metrics:      make([]models.MetricComparison, 0, len(comparedMetrics)),
		Improvements: []string{},
		Degradations: []string{},
	}

	for _, def := range comparedMetrics {
		result.Metrics = append(result.Metrics, compareMetric(def, def.value(before), def.value(after)))
	}

	for _, m := range summarizedMetrics {
		mc, _ := result.Metric(m)
		line := describe(mc)
		switch {
		case line == "":
		case mc.IsImprovement:
			result.Improvements = append(result.Improvements, line)
		case mc.IsDegradation:
			result.Degradations = append(result.Degradations, line)
		}
	}

	result.Summary = append(append([]string{}, result.Improvements...), result.Degradations...)
	if len(result.Summary) == 0 {
		result.Summary = []string{NoDifferenceMessage}
	}
	return result
}

func compareMetric(def metricDef, before, after float64) models.MetricComparison {
	diff := after - before

	// A zero baseline has no meaningful percentage; report 0 by policy.
	diffPercent := 0.0
	if before != 0 {
		diffPercent = diff / before * 100
	}

	mc := models.MetricComparison{
		Metric:         def.metric,
		Before:         before,
		After:          after,
		Diff:           diff,
		DiffPercent:    diffPercent,
		HigherIsBetter: def.higherIsBetter,
		Verdict:        models.VerdictNeutral,
	}
	if def.higherIsBetter {
		mc.IsImprovement = diff > 0
		mc.IsDegradation = diff < 0
	} else {
		mc.IsImprovement = diff < 0
		mc.IsDegradation = diff > 0
	}
	switch {
	case mc.IsImprovement:
		mc.Verdict = models.VerdictImprovement
	case mc.IsDegradation:
		mc.Verdict = models.VerdictDegradation
	}
	return mc
}

// describe renders one summary sentence, or "" for a neutral delta.
func describe(mc models.MetricComparison) string {
	if mc.Diff == 0 || math.IsNaN(mc.Diff) {
		return ""
	}
	magnitude := math.Abs(mc.Diff)

	switch mc.Metric {
	case models.MetricQualityScore:
		direction := "increase"
		if mc.Diff < 0 {
			direction = "decrease"
		}
		return fmt.Sprintf("Quality score: %.1f-point %s (%.1f → %.1f)", magnitude, direction, mc.Before, mc.After)
	case models.MetricAvgCPU:
		return fmt.Sprintf("Average CPU usage %s by %.1f%% (%.1f%% → %.1f%%)", risesOrDrops(mc.Diff), magnitude, mc.Before, mc.After)
	case models.MetricAvgGPU:
		return fmt.Sprintf("Average GPU usage %s by %.1f%% (%.1f%% → %.1f%%)", risesOrDrops(mc.Diff), magnitude, mc.Before, mc.After)
	case models.MetricTotalDroppedFrames:
		if mc.Diff < 0 {
			return fmt.Sprintf("%s fewer dropped frames (%s → %s)", frameCount(magnitude), frameCount(mc.Before), frameCount(mc.After))
		}
		return fmt.Sprintf("%s more dropped frames (%s → %s)", frameCount(magnitude), frameCount(mc.Before), frameCount(mc.After))
	default:
		return ""
	}
}

func risesOrDrops(diff float64) string {
	if diff < 0 {
		return "dropped"
	}
	return "rose"
}

// frameCount formats a whole frame count with thousands separators, including
// counts beyond the int64 range.
func frameCount(v float64) string {
	return humanize.Commaf(math.Round(v))
}

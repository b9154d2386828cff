package sessions

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"streamwatch/internal/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	improvementStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	degradationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	neutralStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle       = lipgloss.NewStyle().Width(22)
)

var metricLabels = map[models.ComparisonMetric]string{
	models.MetricQualityScore:       "Quality score",
	models.MetricAvgCPU:             "Average CPU",
	models.MetricAvgGPU:             "Average GPU",
	models.MetricTotalDroppedFrames: "Dropped frames",
	models.MetricPeakBitrate:        "Peak bitrate",
}

// printJSON encodes v as indented JSON to stdout.
func printJSON(cmd *cobra.Command, v any) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// printComparison renders a comparison as a metric table followed by the
// summary sentences.
func printComparison(cmd *cobra.Command, r models.ComparisonResult) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Session %s → %s", r.Before, r.After)))
	fmt.Fprintln(out)

	for _, mc := range r.Metrics {
		fmt.Fprintf(out, "%s%s → %s  %s\n",
			labelStyle.Render(metricLabels[mc.Metric]),
			formatValue(mc.Metric, mc.Before),
			formatValue(mc.Metric, mc.After),
			styleFor(mc.Verdict).Render(formatDiff(mc)),
		)
	}

	fmt.Fprintln(out)
	for _, line := range r.Improvements {
		fmt.Fprintln(out, improvementStyle.Render("+ "+line))
	}
	for _, line := range r.Degradations {
		fmt.Fprintln(out, degradationStyle.Render("- "+line))
	}
	if len(r.Improvements) == 0 && len(r.Degradations) == 0 {
		fmt.Fprintln(out, neutralStyle.Render(strings.Join(r.Summary, "\n")))
	}
}

func styleFor(v models.Verdict) lipgloss.Style {
	switch v {
	case models.VerdictImprovement:
		return improvementStyle
	case models.VerdictDegradation:
		return degradationStyle
	default:
		return neutralStyle
	}
}

func formatValue(m models.ComparisonMetric, v float64) string {
	switch m {
	case models.MetricAvgCPU, models.MetricAvgGPU:
		return fmt.Sprintf("%.1f%%", v)
	case models.MetricTotalDroppedFrames:
		return humanize.Commaf(math.Round(v))
	case models.MetricPeakBitrate:
		return humanize.SIWithDigits(v, 1, "bps")
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

func formatDiff(mc models.MetricComparison) string {
	if mc.Verdict == models.VerdictNeutral {
		return "unchanged"
	}
	return fmt.Sprintf("%+.1f (%+.1f%%)", mc.Diff, mc.DiffPercent)
}

func formatCount(n uint64) string {
	return humanize.BigComma(new(big.Int).SetUint64(n))
}

func formatBitrate(bps uint64) string {
	return humanize.SIWithDigits(float64(bps), 1, "bps")
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}

package services

import (
	"math"
	"strings"
	"testing"

	"streamwatch/internal/models"

	"github.com/google/go-cmp/cmp"
)

func session(id string, quality, cpu, gpu float64, dropped, bitrate uint64) models.SessionSummary {
	return models.SessionSummary{
		ID:                 id,
		StartTime:          1_700_000_000_000,
		EndTime:            1_700_003_600_000,
		QualityScore:       quality,
		AvgCPU:             cpu,
		AvgGPU:             gpu,
		TotalDroppedFrames: dropped,
		PeakBitrate:        bitrate,
	}
}

func TestCompareQualityIncrease(t *testing.T) {
	a := session("a", 80, 50, 40, 10, 6000)
	b := session("b", 85, 50, 40, 10, 6000)

	r := Compare(a, b)

	mc, ok := r.Metric(models.MetricQualityScore)
	if !ok {
		t.Fatal("quality metric missing")
	}
	if mc.Diff != 5 || mc.Verdict != models.VerdictImprovement {
		t.Errorf("quality = %+v, want diff 5 improvement", mc)
	}
	if diff := cmp.Diff([]string{"Quality score: 5.0-point increase (80.0 → 85.0)"}, r.Improvements); diff != "" {
		t.Errorf("Improvements mismatch (-want +got):\n%s", diff)
	}
	if len(r.Degradations) != 0 {
		t.Errorf("Degradations = %v, want none", r.Degradations)
	}
	if diff := cmp.Diff(r.Improvements, r.Summary); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareCPUDropIsImprovement(t *testing.T) {
	r := Compare(session("a", 80, 50, 40, 0, 0), session("b", 80, 45.5, 40, 0, 0))

	mc, _ := r.Metric(models.MetricAvgCPU)
	if mc.Diff != -4.5 {
		t.Errorf("Diff = %v, want -4.5", mc.Diff)
	}
	if math.Abs(mc.DiffPercent+9) > 1e-9 {
		t.Errorf("DiffPercent = %v, want -9", mc.DiffPercent)
	}
	if !mc.IsImprovement || mc.IsDegradation {
		t.Errorf("cpu drop verdict = %s, want improvement", mc.Verdict)
	}
	if len(r.Improvements) != 1 || !strings.Contains(r.Improvements[0], "Average CPU usage dropped by 4.5%") {
		t.Errorf("Improvements = %v", r.Improvements)
	}
}

func TestCompareDroppedFramesCanIncrease(t *testing.T) {
	r := Compare(session("a", 80, 50, 40, 100, 0), session("b", 80, 50, 40, 1500, 0))

	mc, _ := r.Metric(models.MetricTotalDroppedFrames)
	if mc.Diff != 1400 {
		t.Errorf("Diff = %v, want 1400", mc.Diff)
	}
	if mc.Verdict != models.VerdictDegradation {
		t.Errorf("Verdict = %s, want degradation", mc.Verdict)
	}
	if diff := cmp.Diff([]string{"1,400 more dropped frames (100 → 1,500)"}, r.Degradations); diff != "" {
		t.Errorf("Degradations mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareDroppedFramesBeyondInt64(t *testing.T) {
	r := Compare(session("a", 80, 50, 40, 0, 0), session("b", 80, 50, 40, 1<<63, 0))

	want := []string{"9,223,372,036,854,775,808 more dropped frames (0 → 9,223,372,036,854,775,808)"}
	if diff := cmp.Diff(want, r.Degradations); diff != "" {
		t.Errorf("Degradations mismatch (-want +got):\n%s", diff)
	}
}

func TestComparePeakBitrateHasNoSentence(t *testing.T) {
	r := Compare(session("a", 80, 50, 40, 0, 6000), session("b", 80, 50, 40, 0, 8000))

	mc, _ := r.Metric(models.MetricPeakBitrate)
	if mc.Verdict != models.VerdictImprovement {
		t.Errorf("peak bitrate verdict = %s, want improvement", mc.Verdict)
	}
	if diff := cmp.Diff([]string{NoDifferenceMessage}, r.Summary); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareSummaryOrder(t *testing.T) {
	a := session("a", 80, 50, 40, 10, 0)
	b := session("b", 70, 40, 45, 5, 0)

	r := Compare(a, b)

	// Improvements: cpu, dropped. Degradations: quality, gpu.
	if len(r.Improvements) != 2 || !strings.HasPrefix(r.Improvements[0], "Average CPU") || !strings.Contains(r.Improvements[1], "fewer dropped frames") {
		t.Errorf("Improvements = %v", r.Improvements)
	}
	if len(r.Degradations) != 2 || !strings.HasPrefix(r.Degradations[0], "Quality score: 10.0-point decrease") || !strings.HasPrefix(r.Degradations[1], "Average GPU") {
		t.Errorf("Degradations = %v", r.Degradations)
	}
	want := append(append([]string{}, r.Improvements...), r.Degradations...)
	if diff := cmp.Diff(want, r.Summary); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareMetricOrder(t *testing.T) {
	r := Compare(session("a", 1, 1, 1, 1, 1), session("b", 2, 2, 2, 2, 2))

	var got []models.ComparisonMetric
	for _, mc := range r.Metrics {
		got = append(got, mc.Metric)
	}
	want := []models.ComparisonMetric{
		models.MetricQualityScore,
		models.MetricAvgCPU,
		models.MetricAvgGPU,
		models.MetricTotalDroppedFrames,
		models.MetricPeakBitrate,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("metric order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareSelfIsNeutral(t *testing.T) {
	a := session("a", 80, 50, 40, 10, 6000)
	r := Compare(a, a)

	for _, mc := range r.Metrics {
		if mc.Diff != 0 || mc.Verdict != models.VerdictNeutral || mc.IsImprovement || mc.IsDegradation {
			t.Errorf("%s = %+v, want neutral", mc.Metric, mc)
		}
	}
	if len(r.Improvements) != 0 || len(r.Degradations) != 0 {
		t.Errorf("lists not empty: %v / %v", r.Improvements, r.Degradations)
	}
	if diff := cmp.Diff([]string{NoDifferenceMessage}, r.Summary); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareIsAntisymmetric(t *testing.T) {
	a := session("a", 72.5, 61, 35, 300, 4500)
	b := session("b", 88, 44.25, 52, 20, 9000)

	ab := Compare(a, b)
	ba := Compare(b, a)

	for i := range ab.Metrics {
		x, y := ab.Metrics[i], ba.Metrics[i]
		if x.Diff != -y.Diff {
			t.Errorf("%s: diff %v vs swapped %v", x.Metric, x.Diff, y.Diff)
		}
		if x.IsImprovement != y.IsDegradation || x.IsDegradation != y.IsImprovement {
			t.Errorf("%s: verdict %s vs swapped %s", x.Metric, x.Verdict, y.Verdict)
		}
	}
	if len(ab.Improvements) != len(ba.Degradations) || len(ab.Degradations) != len(ba.Improvements) {
		t.Errorf("summary counts not swapped: %d/%d vs %d/%d",
			len(ab.Improvements), len(ab.Degradations), len(ba.Improvements), len(ba.Degradations))
	}
}

func TestCompareZeroBaseline(t *testing.T) {
	r := Compare(session("a", 0, 0, 0, 0, 0), session("b", 50, 10, 10, 5, 100))

	for _, mc := range r.Metrics {
		if mc.DiffPercent != 0 {
			t.Errorf("%s DiffPercent = %v, want 0 for zero baseline", mc.Metric, mc.DiffPercent)
		}
		if mc.Diff == 0 {
			t.Errorf("%s Diff = 0, want non-zero", mc.Metric)
		}
	}
}

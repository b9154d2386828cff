package services

import (
	"errors"
	"testing"

	"streamwatch/internal/models"

	"github.com/google/go-cmp/cmp"
)

func TestParseNvidiaSMI(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    *models.GPUStatus
		wantErr error
	}{
		{
			name: "single gpu",
			out:  "NVIDIA GeForce RTX 3080, 45, 2048, 10240, 12\n",
			want: &models.GPUStatus{
				Name:             "NVIDIA GeForce RTX 3080",
				UsagePercent:     45,
				MemoryUsedBytes:  2048 * mib,
				MemoryTotalBytes: 10240 * mib,
				EncoderUsage:     12,
			},
		},
		{
			name: "first of several",
			out:  "GPU A, 10, 1, 2, 3\nGPU B, 90, 4, 5, 6\n",
			want: &models.GPUStatus{Name: "GPU A", UsagePercent: 10, MemoryUsedBytes: mib, MemoryTotalBytes: 2 * mib, EncoderUsage: 3},
		},
		{
			name: "unsupported encoder",
			out:  "Tesla T4, 5, 100, 15360, [N/A]",
			want: &models.GPUStatus{Name: "Tesla T4", UsagePercent: 5, MemoryUsedBytes: 100 * mib, MemoryTotalBytes: 15360 * mib},
		},
		{
			name:    "no devices",
			out:     "\n",
			wantErr: models.ErrDataUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseNvidiaSMI([]byte(tt.out))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseNvidiaSMI: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseNvidiaSMIShortLine(t *testing.T) {
	if _, err := parseNvidiaSMI([]byte("GPU, 10")); err == nil {
		t.Fatal("expected error for truncated line")
	}
}

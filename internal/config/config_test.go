package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"streamwatch/internal/models"
	"streamwatch/internal/services"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streamwatch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != "localhost:8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Poll.Interval != time.Second {
		t.Errorf("Poll.Interval = %v, want 1s", cfg.Poll.Interval)
	}
	if cfg.History.Capacity != services.DefaultHistoryCapacity {
		t.Errorf("History.Capacity = %d", cfg.History.Capacity)
	}
	if diff := cmp.Diff(services.DefaultProcessNames, cfg.Process.Names); diff != "" {
		t.Errorf("Process.Names mismatch (-want +got):\n%s", diff)
	}
	if cfg.Storage.Path == "" {
		t.Error("Storage.Path not defaulted")
	}
	if cfg.Storage.RetentionDays != 14 {
		t.Errorf("Storage.RetentionDays = %d", cfg.Storage.RetentionDays)
	}
	if !cfg.GPU.Enabled {
		t.Error("GPU.Enabled = false by default")
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: 0.0.0.0:9000
poll:
  interval: 500ms
history:
  capacity: 120
process:
  names: [ffmpeg]
storage:
  path: /tmp/sw.db
thresholds:
  memory:
    warning: 80
    critical: 95
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Poll.Interval != 500*time.Millisecond {
		t.Errorf("Poll.Interval = %v", cfg.Poll.Interval)
	}
	if cfg.History.Capacity != 120 {
		t.Errorf("History.Capacity = %d", cfg.History.Capacity)
	}
	if diff := cmp.Diff([]string{"ffmpeg"}, cfg.Process.Names); diff != "" {
		t.Errorf("Process.Names mismatch (-want +got):\n%s", diff)
	}
	if cfg.Storage.Path != "/tmp/sw.db" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}

	table, err := cfg.ThresholdTable()
	if err != nil {
		t.Fatalf("ThresholdTable: %v", err)
	}
	want := services.ThresholdTable{models.DomainMemory: {Warning: 80, Critical: 95}}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("ThresholdTable mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STREAMWATCH_POLL_INTERVAL", "250ms")
	t.Setenv("STREAMWATCH_SERVER_ADDR", "127.0.0.1:7000")

	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Poll.Interval != 250*time.Millisecond {
		t.Errorf("Poll.Interval = %v, want 250ms", cfg.Poll.Interval)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestLoadThresholdEnvOverride(t *testing.T) {
	t.Setenv("STREAMWATCH_THRESHOLDS_MEMORY_WARNING", "80")
	t.Setenv("STREAMWATCH_THRESHOLDS_MEMORY_CRITICAL", "95")
	t.Setenv("STREAMWATCH_THRESHOLDS_GPU_WARNING", "85")

	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	table, err := cfg.ThresholdTable()
	if err != nil {
		t.Fatalf("ThresholdTable: %v", err)
	}

	want := services.ThresholdTable{
		models.DomainMemory: {Warning: 80, Critical: 95},
		models.DomainGPU:    {Warning: 85, Critical: 95},
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("ThresholdTable mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadThresholdHalfPairFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "thresholds:\n  cpu:\n    critical: 97\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	table, err := cfg.ThresholdTable()
	if err != nil {
		t.Fatalf("ThresholdTable: %v", err)
	}
	want := services.ThresholdTable{models.DomainCPU: {Warning: 70, Critical: 97}}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("ThresholdTable mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"zero interval":     "poll:\n  interval: 0s\n",
		"negative capacity": "history:\n  capacity: -1\n",
		"unknown domain":    "thresholds:\n  disk:\n    warning: 1\n    critical: 2\n",
		"inverted":          "thresholds:\n  cpu:\n    warning: 95\n    critical: 90\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"streamwatch/internal/models"
)

const mib = 1024 * 1024

// GPUProbe reads the primary GPU. It returns an error wrapping
// models.ErrDataUnavailable when no GPU can be found.
type GPUProbe interface {
	Probe(ctx context.Context) (*models.GPUStatus, error)
}

// NvidiaSMIProbe queries nvidia-smi in CSV mode.
type NvidiaSMIProbe struct {
	Path string // defaults to "nvidia-smi" on $PATH
}

var nvidiaSMIArgs = []string{
	"--query-gpu=name,utilization.gpu,memory.used,memory.total,utilization.encoder",
	"--format=csv,noheader,nounits",
}

// Probe runs nvidia-smi once and parses the first GPU line.
func (p NvidiaSMIProbe) Probe(ctx context.Context) (*models.GPUStatus, error) {
	bin := p.Path
	if bin == "" {
		bin = "nvidia-smi"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("%w: nvidia-smi not found", models.ErrDataUnavailable)
	}

	out, err := exec.CommandContext(ctx, bin, nvidiaSMIArgs...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// nvidia-smi exits non-zero when the driver sees no device.
			return nil, fmt.Errorf("%w: nvidia-smi: %s", models.ErrDataUnavailable, bytes.TrimSpace(exitErr.Stderr))
		}
		return nil, fmt.Errorf("nvidia-smi: %w", err)
	}
	return parseNvidiaSMI(out)
}

// parseNvidiaSMI parses "name, util, mem.used MiB, mem.total MiB, encoder".
// Fields reported as "[N/A]" or "[Not Supported]" read as 0.
func parseNvidiaSMI(out []byte) (*models.GPUStatus, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if line == "" {
		return nil, fmt.Errorf("%w: nvidia-smi reported no devices", models.ErrDataUnavailable)
	}

	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return nil, fmt.Errorf("nvidia-smi: expected 5 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	return &models.GPUStatus{
		Name:             fields[0],
		UsagePercent:     models.ClampPercent(parseSMIFloat(fields[1])),
		MemoryUsedBytes:  uint64(parseSMIFloat(fields[2]) * mib),
		MemoryTotalBytes: uint64(parseSMIFloat(fields[3]) * mib),
		EncoderUsage:     models.ClampPercent(parseSMIFloat(fields[4])),
	}, nil
}

func parseSMIFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"streamwatch/internal/models"

	"github.com/shirou/gopsutil/v3/process"
)

// DefaultProcessNames matches the common OBS Studio executables.
var DefaultProcessNames = []string{"obs", "obs64", "obs64.exe", "obs32.exe", "obs-studio"}

// ProcessMatcher aggregates every process whose executable name matches one
// of the configured names (case-insensitive, extension-insensitive).
type ProcessMatcher struct {
	names map[string]bool
}

// NewProcessMatcher creates a matcher. An empty list uses DefaultProcessNames.
func NewProcessMatcher(names []string) *ProcessMatcher {
	if len(names) == 0 {
		names = DefaultProcessNames
	}
	pm := &ProcessMatcher{names: make(map[string]bool, len(names))}
	for _, n := range names {
		pm.names[normalizeProcessName(n)] = true
	}
	return pm
}

// Matches reports whether name is one of the monitored executables.
func (pm *ProcessMatcher) Matches(name string) bool {
	return pm.names[normalizeProcessName(name)]
}

// Collect sums CPU% and RSS over all matching processes. It returns nil, nil
// when none are running.
func (pm *ProcessMatcher) Collect(ctx context.Context) (*models.ProcessMetrics, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list processes: %v", models.ErrTransport, err)
	}

	var agg *models.ProcessMetrics
	seenPIDs := make(map[int32]bool)

	for _, p := range procs {
		if seenPIDs[p.Pid] {
			continue
		}
		seenPIDs[p.Pid] = true

		name, err := p.NameWithContext(ctx)
		if err != nil || !pm.Matches(name) {
			continue
		}

		if agg == nil {
			agg = &models.ProcessMetrics{Name: name}
		}
		agg.PIDs = append(agg.PIDs, p.Pid)

		// Processes can exit between listing and sampling; count what we got.
		if cpuPercent, err := p.CPUPercentWithContext(ctx); err == nil {
			agg.CPUPercent += cpuPercent
		}
		if memInfo, err := p.MemoryInfoWithContext(ctx); err == nil && memInfo != nil {
			agg.MemoryBytes += memInfo.RSS
		}
	}

	if agg != nil {
		sort.Slice(agg.PIDs, func(i, j int) bool { return agg.PIDs[i] < agg.PIDs[j] })
	}
	return agg, nil
}

func normalizeProcessName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if ext := filepath.Ext(name); ext == ".exe" {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

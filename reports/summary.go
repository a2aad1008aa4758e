package reports

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/memvis/collector/output/bus"
	"github.com/memvis/collector/state"
)

// SummaryReport - Memory usage, page residency and fragmentation over a period
type SummaryReport struct {
	Snapshots uint64
	Skipped   uint64

	MemorySamples     uint64
	MinUsedPercent    float64
	MaxUsedPercent    float64
	sumUsedPercent    float64
	SampledPages      uint64
	ResidentPages     uint64
	MaxFragmentation  float64
	DegradedSnapshots uint64 // at least one component not fresh

	Processes map[int32]*ProcessSummary
}

// ProcessSummary - Pages and segments of one target process over a period
type ProcessSummary struct {
	SampledPages  uint64
	ResidentPages uint64
	MaxSegments   int // most segments seen in a single snapshot
}

func NewSummaryReport() Report {
	return &SummaryReport{MinUsedPercent: math.Inf(1), Processes: make(map[int32]*ProcessSummary)}
}

func (report *SummaryReport) process(pid int32) *ProcessSummary {
	process, ok := report.Processes[pid]
	if !ok {
		process = &ProcessSummary{}
		report.Processes[pid] = process
	}
	return process
}

func (report *SummaryReport) Add(delivery bus.Delivery) {
	snapshot := delivery.Snapshot

	report.Snapshots++
	report.Skipped += delivery.Skipped

	if snapshot.Memory != nil {
		used := snapshot.Memory.UsedPercent()
		report.MemorySamples++
		report.sumUsedPercent += used
		report.MinUsedPercent = math.Min(report.MinUsedPercent, used)
		report.MaxUsedPercent = math.Max(report.MaxUsedPercent, used)
	}
	if snapshot.Paging != nil {
		report.SampledPages += uint64(len(snapshot.Paging.Pages))
		report.ResidentPages += uint64(snapshot.Paging.ResidentCount())
		for _, page := range snapshot.Paging.Pages {
			process := report.process(page.PID)
			process.SampledPages++
			if page.Resident {
				process.ResidentPages++
			}
		}
	}
	if snapshot.Segmentation != nil {
		report.MaxFragmentation = math.Max(report.MaxFragmentation, snapshot.Segmentation.Fragmentation)

		segments := make(map[int32]int)
		for _, segment := range snapshot.Segmentation.Segments {
			segments[segment.PID]++
		}
		for pid, count := range segments {
			process := report.process(pid)
			if count > process.MaxSegments {
				process.MaxSegments = count
			}
		}
	}

	for _, component := range state.Components {
		if snapshot.Status[component].Freshness != state.Fresh {
			report.DegradedSnapshots++
			break
		}
	}
}

func (report *SummaryReport) Empty() bool {
	return report.Snapshots == 0
}

// AvgUsedPercent - Average memory used percentage, 0 without samples
func (report *SummaryReport) AvgUsedPercent() float64 {
	if report.MemorySamples == 0 {
		return 0
	}
	return report.sumUsedPercent / float64(report.MemorySamples)
}

// ResidentRatio - Share of sampled pages that were resident, 0 without samples
func (report *SummaryReport) ResidentRatio() float64 {
	if report.SampledPages == 0 {
		return 0
	}
	return float64(report.ResidentPages) / float64(report.SampledPages)
}

func (report *SummaryReport) Result() string {
	memory := "memory n/a"
	if report.MemorySamples > 0 {
		memory = fmt.Sprintf("memory used %.1f%%/%.1f%%/%.1f%% (min/avg/max)",
			report.MinUsedPercent, report.AvgUsedPercent(), report.MaxUsedPercent)
	}
	result := fmt.Sprintf("Summary: %d snapshots (%d skipped, %d degraded), %s, %.0f%% of %d sampled pages resident, max fragmentation %.3f",
		report.Snapshots, report.Skipped, report.DegradedSnapshots, memory,
		report.ResidentRatio()*100, report.SampledPages, report.MaxFragmentation)
	if len(report.Processes) == 0 {
		return result
	}

	pids := make([]int32, 0, len(report.Processes))
	for pid := range report.Processes {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	parts := make([]string, 0, len(pids))
	for _, pid := range pids {
		process := report.Processes[pid]
		parts = append(parts, fmt.Sprintf("pid %d: %d/%d pages resident, %d segments",
			pid, process.ResidentPages, process.SampledPages, process.MaxSegments))
	}
	return result + "; " + strings.Join(parts, "; ")
}

package selfhosted

import (
	"strings"

	"github.com/memvis/collector/state"
)

// mapping - One virtual memory area of a process
type mapping struct {
	pid   int32
	start uint64
	end   uint64
	exec  bool
	path  string
}

func classifyMapping(m mapping) state.SegmentKind {
	switch {
	case m.path == "[heap]":
		return state.SegmentHeap
	case strings.HasPrefix(m.path, "[stack"):
		return state.SegmentStack
	case m.exec:
		return state.SegmentCode
	}
	return state.SegmentData
}

// buildSegmentation - Turns memory mappings (grouped by pid, each group ordered
// by address) into a segment table
//
// Bases are relative to the lowest mapped address of the owning process, so the
// total is the largest address span sampled. Fragmentation is the unmapped
// share of all sampled spans combined.
func buildSegmentation(mappings []mapping, maxSegments int) state.SegmentationSnapshot {
	var snapshot state.SegmentationSnapshot

	if maxSegments > 0 && len(mappings) > maxSegments {
		mappings = mappings[:maxSegments]
	}

	var pidOrder []int32
	byPid := make(map[int32][]mapping)
	for _, m := range mappings {
		if m.end <= m.start {
			continue
		}
		if _, ok := byPid[m.pid]; !ok {
			pidOrder = append(pidOrder, m.pid)
		}
		byPid[m.pid] = append(byPid[m.pid], m)
	}

	var spanSum, coveredSum float64
	id := uint64(0)
	for _, pid := range pidOrder {
		group := byPid[pid]
		low, high := group[0].start, group[0].end
		for _, m := range group {
			if m.start < low {
				low = m.start
			}
			if m.end > high {
				high = m.end
			}
		}
		span := high - low

		segments := make([]state.SegmentRecord, 0, len(group))
		for _, m := range group {
			segments = append(segments, state.SegmentRecord{
				ID:    id,
				Base:  m.start - low,
				Limit: m.end - m.start,
				Kind:  classifyMapping(m),
				PID:   pid,
				Path:  m.path,
			})
			id++
		}

		if span > snapshot.TotalMemoryBytes {
			snapshot.TotalMemoryBytes = span
		}
		fragmentation := state.Fragmentation(span, segments)
		spanSum += float64(span)
		coveredSum += float64(span) * (1 - fragmentation)
		snapshot.Segments = append(snapshot.Segments, segments...)
	}

	if spanSum > 0 {
		snapshot.Fragmentation = clampRatio(1 - coveredSum/spanSum)
	}

	return snapshot
}

func clampRatio(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

package state

import (
	"fmt"
	"sort"
)

// SegmentKind - Closed set of segment kinds
type SegmentKind int

// Treat this list as append-only and never change the order
const (
	SegmentCode SegmentKind = iota
	SegmentData
	SegmentStack
	SegmentHeap
)

var segmentKindNames = map[SegmentKind]string{
	SegmentCode:  "code",
	SegmentData:  "data",
	SegmentStack: "stack",
	SegmentHeap:  "heap",
}

func (k SegmentKind) String() string {
	if name, ok := segmentKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SegmentKind(%d)", int(k))
}

// ParseSegmentKind - Inverse of SegmentKind.String
func ParseSegmentKind(s string) (SegmentKind, error) {
	for kind, name := range segmentKindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown segment kind %q", s)
}

// SegmentRecord - One segment (a mapped region) owned by a process
type SegmentRecord struct {
	ID    uint64
	Base  uint64
	Limit uint64
	Kind  SegmentKind
	PID   int32
	Path  string
}

// End - First offset past the segment
func (s SegmentRecord) End() uint64 {
	return s.Base + s.Limit
}

// SegmentationSnapshot - Segment table sample and how fragmented the covered range is
type SegmentationSnapshot struct {
	TotalMemoryBytes uint64
	Fragmentation    float64 // 0.0 (no gaps) to 1.0
	Segments         []SegmentRecord
}

// Validate checks the producer invariants. Consumers handling snapshots from an
// untrusted source should call this rather than assume it.
func (s SegmentationSnapshot) Validate() error {
	if s.Fragmentation < 0 || s.Fragmentation > 1 {
		return invariantErrorf(SegmentationComponent, "fragmentation %f outside [0, 1]", s.Fragmentation)
	}
	seen := make(map[uint64]bool, len(s.Segments))
	for _, segment := range s.Segments {
		if seen[segment.ID] {
			return invariantErrorf(SegmentationComponent, "duplicate segment id %d", segment.ID)
		}
		seen[segment.ID] = true
		if segment.Limit == 0 {
			return invariantErrorf(SegmentationComponent, "segment %d has zero limit", segment.ID)
		}
		if _, ok := segmentKindNames[segment.Kind]; !ok {
			return invariantErrorf(SegmentationComponent, "segment %d has unknown kind %d", segment.ID, int(segment.Kind))
		}
		if segment.End() < segment.Base || segment.End() > s.TotalMemoryBytes {
			return invariantErrorf(SegmentationComponent, "segment %d [%d, +%d) exceeds total memory %d", segment.ID, segment.Base, segment.Limit, s.TotalMemoryBytes)
		}
	}
	return nil
}

// Fragmentation - Share of [0, total) not covered by any of the given segments.
// Overlapping segments are only counted once.
func Fragmentation(total uint64, segments []SegmentRecord) float64 {
	if total == 0 {
		return 0
	}

	covered := uint64(0)
	sorted := sortedByBase(segments)
	cursor := uint64(0)
	for _, segment := range sorted {
		start, end := segment.Base, segment.End()
		if end > total {
			end = total
		}
		if start < cursor {
			start = cursor
		}
		if end > start {
			covered += end - start
			cursor = end
		}
	}

	return 1 - float64(covered)/float64(total)
}

func sortedByBase(segments []SegmentRecord) []SegmentRecord {
	sorted := make([]SegmentRecord, len(segments))
	copy(sorted, segments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Base < sorted[j].Base
	})
	return sorted
}

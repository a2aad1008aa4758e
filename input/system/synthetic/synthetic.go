// Package synthetic provides a deterministic telemetry source producing data
// shaped like a small host: a 100 page physical memory, 10 sampled pages owned
// by five processes and five segments in a 16 KiB address range.
//
// The same seed always yields the same sequence of snapshots, and every
// snapshot satisfies the model invariants.
package synthetic

import (
	"context"
	"math/rand"
	"sync"

	"github.com/memvis/collector/state"
)

const (
	PageSizeBytes  = 4096
	TotalPages     = 100
	SampledPages   = 10
	ProcessCount   = 5
	SegmentCount   = 5
	AddressSpace   = 16384
	HostTotalBytes = 16 << 30
	HostSwapBytes  = 4 << 30

	// Share of sampled pages that are not resident
	nonResidentRatio = 0.3
)

var segmentKinds = []state.SegmentKind{state.SegmentCode, state.SegmentData, state.SegmentStack, state.SegmentHeap}

// Source - Deterministic telemetry source
type Source struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSource(seed int64) *Source {
	return &Source{rnd: rand.New(rand.NewSource(seed))}
}

// QueryMemory - Host with 16 GiB of memory, 30-70% used, and 4 GiB of swap
func (s *Source) QueryMemory(ctx context.Context) (state.MemorySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := uint64(HostTotalBytes) / 100 * uint64(30+s.rnd.Intn(41))
	swapUsed := uint64(HostSwapBytes) / 100 * uint64(s.rnd.Intn(26))
	return state.MemorySnapshot{
		TotalBytes:     HostTotalBytes,
		UsedBytes:      used,
		FreeBytes:      HostTotalBytes - used,
		AvailableBytes: HostTotalBytes - used,
		SwapTotalBytes: HostSwapBytes,
		SwapUsedBytes:  swapUsed,
		SwapFreeBytes:  HostSwapBytes - swapUsed,
	}, nil
}

// QueryPaging - 30-70 of 100 pages used, 10 sampled pages of which roughly 30% are not resident
func (s *Source) QueryPaging(ctx context.Context) (state.PagingSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := state.PagingSnapshot{
		PageSizeBytes: PageSizeBytes,
		TotalPages:    TotalPages,
		UsedPages:     uint64(30 + s.rnd.Intn(41)),
		Pages:         make([]state.PageRecord, 0, SampledPages),
	}
	for i := 0; i < SampledPages; i++ {
		id := uint64(i)
		virtualAddress := id * PageSizeBytes
		pid := int32(1 + s.rnd.Intn(ProcessCount))
		if s.rnd.Float64() > nonResidentRatio {
			frame := int64(s.rnd.Intn(TotalPages))
			snapshot.Pages = append(snapshot.Pages, state.NewResidentPage(id, virtualAddress, frame*PageSizeBytes, pid))
		} else {
			snapshot.Pages = append(snapshot.Pages, state.NewSwappedPage(id, virtualAddress, pid))
		}
	}
	return snapshot, nil
}

// QuerySegmentation - Five non-overlapping segments, one per equal slot of the address range
func (s *Source) QuerySegmentation(ctx context.Context) (state.SegmentationSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const slot = AddressSpace / SegmentCount
	snapshot := state.SegmentationSnapshot{
		TotalMemoryBytes: AddressSpace,
		Segments:         make([]state.SegmentRecord, 0, SegmentCount),
	}
	for i := 0; i < SegmentCount; i++ {
		// Offset and limit together stay below the slot size
		offset := uint64(s.rnd.Intn(slot / 2))
		limit := uint64(100 + s.rnd.Intn(slot/2-100))
		snapshot.Segments = append(snapshot.Segments, state.SegmentRecord{
			ID:    uint64(i),
			Base:  uint64(i*slot) + offset,
			Limit: limit,
			Kind:  segmentKinds[s.rnd.Intn(len(segmentKinds))],
			PID:   int32(1 + s.rnd.Intn(ProcessCount)),
		})
	}
	snapshot.Fragmentation = state.Fragmentation(snapshot.TotalMemoryBytes, snapshot.Segments)
	return snapshot, nil
}

// HostInfo - Fixed host description
func (s *Source) HostInfo(ctx context.Context) state.HostInfo {
	return state.HostInfo{
		Hostname:        "synthetic",
		OperatingSystem: "synthetic",
		Platform:        "synthetic",
	}
}

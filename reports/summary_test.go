package reports

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kylelemons/godebug/pretty"

	"github.com/memvis/collector/output/bus"
	"github.com/memvis/collector/state"
	"github.com/memvis/collector/util"
)

func memorySnapshot(used uint64) *state.MemorySnapshot {
	return &state.MemorySnapshot{TotalBytes: 1000, UsedBytes: used, FreeBytes: 1000 - used, AvailableBytes: 1000 - used}
}

func TestSummaryReport(t *testing.T) {
	paging := &state.PagingSnapshot{
		PageSizeBytes: 4096,
		TotalPages:    10,
		UsedPages:     4,
		Pages: []state.PageRecord{
			state.NewResidentPage(0, 0x1000, 0x9000, 1),
			state.NewResidentPage(1, 0x2000, 0xa000, 1),
			state.NewResidentPage(2, 0x3000, 0xb000, 1),
			state.NewSwappedPage(3, 0x4000, 1),
		},
	}

	deliveries := []bus.Delivery{
		{Snapshot: state.Snapshot{Sequence: 1, Memory: memorySnapshot(250), Paging: paging,
			Segmentation: &state.SegmentationSnapshot{TotalMemoryBytes: 100, Fragmentation: 0.25}}},
		{Snapshot: state.Snapshot{Sequence: 4, Memory: memorySnapshot(500),
			Segmentation: &state.SegmentationSnapshot{TotalMemoryBytes: 100, Fragmentation: 0.5, Segments: []state.SegmentRecord{
				{ID: 0, Base: 0, Limit: 20, Kind: state.SegmentCode, PID: 1},
				{ID: 1, Base: 40, Limit: 10, Kind: state.SegmentHeap, PID: 1},
				{ID: 2, Base: 0, Limit: 30, Kind: state.SegmentStack, PID: 7},
			}},
			Status: [state.ComponentCount]state.ComponentStatus{
				state.PagingComponent: {Freshness: state.Missing},
			}}, Skipped: 2},
	}

	report := NewSummaryReport().(*SummaryReport)
	for _, delivery := range deliveries {
		report.Add(delivery)
	}

	expected := &SummaryReport{
		Snapshots:         2,
		Skipped:           2,
		MemorySamples:     2,
		MinUsedPercent:    25,
		MaxUsedPercent:    50,
		sumUsedPercent:    75,
		SampledPages:      4,
		ResidentPages:     3,
		MaxFragmentation:  0.5,
		DegradedSnapshots: 1,
		Processes: map[int32]*ProcessSummary{
			1: {SampledPages: 4, ResidentPages: 3, MaxSegments: 2},
			7: {MaxSegments: 1},
		},
	}
	if diff := pretty.Compare(expected, report); diff != "" {
		t.Errorf("diff: (-want +got)\n%s", diff)
	}
	if report.AvgUsedPercent() != 37.5 {
		t.Errorf("expected average 37.5, got %f", report.AvgUsedPercent())
	}
	if report.ResidentRatio() != 0.75 {
		t.Errorf("expected resident ratio 0.75, got %f", report.ResidentRatio())
	}

	result := report.Result()
	for _, part := range []string{"2 snapshots", "2 skipped", "25.0%/37.5%/50.0%", "75% of 4 sampled pages", "0.500",
		"pid 1: 3/4 pages resident, 2 segments; pid 7: 0/0 pages resident, 1 segments"} {
		if !strings.Contains(result, part) {
			t.Errorf("expected %q in %q", part, result)
		}
	}
}

func TestEmptySummaryReport(t *testing.T) {
	report := NewSummaryReport()
	if !report.Empty() {
		t.Errorf("new report should be empty")
	}
	if !strings.Contains(report.Result(), "memory n/a") {
		t.Errorf("unexpected result %q", report.Result())
	}
}

func TestReporterConsume(t *testing.T) {
	var out bytes.Buffer
	reporter := NewReporter(util.NewLogger(&out, false, false), NewSummaryReport)

	snapshotBus := bus.New(bus.DefaultQueueSize)
	sub := snapshotBus.Subscribe()

	done := make(chan error)
	go func() {
		done <- reporter.Consume(context.Background(), sub)
	}()

	for i := 1; i <= 3; i++ {
		snapshotBus.Publish(state.Snapshot{Sequence: uint64(i), Memory: memorySnapshot(100)})
	}

	deadline := time.Now().Add(2 * time.Second)
	for sub.Pending() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("deliveries were not consumed")
		}
		time.Sleep(time.Millisecond)
	}

	// Consume returns once the bus is closed, after adding everything it received
	snapshotBus.Close()
	if err := <-done; err != nil {
		t.Fatalf("Consume: %s", err)
	}

	report := reporter.Flush().(*SummaryReport)
	if report.Snapshots != 3 || report.MaxUsedPercent != 10 {
		t.Errorf("unexpected report %+v", report)
	}
	if !strings.Contains(out.String(), "Summary: 3 snapshots") {
		t.Errorf("expected summary in log output, got %q", out.String())
	}

	if !reporter.Flush().Empty() {
		t.Errorf("expected a fresh report after Flush")
	}
}

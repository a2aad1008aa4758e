package selfhosted

import (
	"context"
	"io/ioutil"
	"log"
	"os"
	"testing"

	"github.com/memvis/collector/state"
	"github.com/memvis/collector/util"
)

func testSource(opts Options) *Source {
	return NewSource(opts, &util.Logger{Destination: log.New(ioutil.Discard, "", 0)})
}

func TestQueryMemory(t *testing.T) {
	memory, err := testSource(Options{}).QueryMemory(context.Background())
	if err != nil {
		t.Fatalf("QueryMemory: %v", err)
	}
	if memory.TotalBytes == 0 {
		t.Errorf("expected total memory to be reported")
	}
	if err = memory.Validate(); err != nil {
		t.Errorf("expected valid memory snapshot, got %v", err)
	}
}

func TestQuerySegmentationSelf(t *testing.T) {
	segmentation, err := testSource(Options{MaxSegments: 32}).QuerySegmentation(context.Background())
	if err != nil {
		t.Skipf("memory maps not readable here: %v", err)
	}
	if len(segmentation.Segments) == 0 || len(segmentation.Segments) > 32 {
		t.Errorf("expected 1..32 segments; actual %d", len(segmentation.Segments))
	}
	for _, segment := range segmentation.Segments {
		if segment.PID != int32(os.Getpid()) {
			t.Errorf("expected segments of pid %d; actual %d", os.Getpid(), segment.PID)
		}
	}
	if err = segmentation.Validate(); err != nil {
		t.Errorf("expected valid segmentation snapshot, got %v", err)
	}
}

func TestQueryPagingSelf(t *testing.T) {
	paging, err := testSource(Options{MaxPages: 16}).QueryPaging(context.Background())
	if err != nil {
		if state.IsUnsupported(err) {
			t.Fatalf("paging should be supported on linux: %v", err)
		}
		t.Skipf("pagemap not readable here: %v", err)
	}
	if len(paging.Pages) > 16 {
		t.Errorf("expected at most 16 pages; actual %d", len(paging.Pages))
	}
	if err = paging.Validate(); err != nil {
		t.Errorf("expected valid paging snapshot, got %v", err)
	}
}

func TestTargetPidsSkipsDeadProcesses(t *testing.T) {
	source := testSource(Options{TargetPids: []int{os.Getpid(), 1 << 30}})
	pids, err := source.targetPids(context.Background())
	if err != nil {
		t.Fatalf("targetPids: %v", err)
	}
	if len(pids) != 1 || pids[0] != int32(os.Getpid()) {
		t.Errorf("expected only our own pid; actual %v", pids)
	}

	source = testSource(Options{TargetPids: []int{1 << 30}})
	if _, err = source.targetPids(context.Background()); err == nil {
		t.Errorf("expected error when no target process is running")
	}
}

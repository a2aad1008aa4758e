//go:build !linux

package selfhosted

import (
	"context"
	"fmt"
	"runtime"

	"github.com/memvis/collector/state"
)

// QueryPaging - Per-page residency needs /proc/<pid>/pagemap, which only Linux has
func (s *Source) QueryPaging(ctx context.Context) (state.PagingSnapshot, error) {
	return state.PagingSnapshot{}, state.UnsupportedError(state.PagingComponent, fmt.Errorf("no pagemap on %s", runtime.GOOS))
}

// QuerySegmentation - Memory maps are read from /proc, which only Linux has
func (s *Source) QuerySegmentation(ctx context.Context) (state.SegmentationSnapshot, error) {
	return state.SegmentationSnapshot{}, state.UnsupportedError(state.SegmentationComponent, fmt.Errorf("no /proc/<pid>/maps on %s", runtime.GOOS))
}

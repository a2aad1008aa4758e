package selfhosted

import (
	"context"

	"github.com/memvis/collector/state"
)

// QuerySegmentation - Segment table built from the memory mappings of the target processes
func (s *Source) QuerySegmentation(ctx context.Context) (state.SegmentationSnapshot, error) {
	pids, err := s.targetPids(ctx)
	if err != nil {
		return state.SegmentationSnapshot{}, state.Unavailable(state.SegmentationComponent, err)
	}

	mappings, err := s.readAllMappings(pids)
	if err != nil {
		return state.SegmentationSnapshot{}, state.Unavailable(state.SegmentationComponent, err)
	}

	return buildSegmentation(mappings, s.opts.MaxSegments), nil
}

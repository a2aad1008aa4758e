package system

import (
	"context"
	"fmt"

	"github.com/memvis/collector/config"
	"github.com/memvis/collector/input/system/selfhosted"
	"github.com/memvis/collector/input/system/synthetic"
	"github.com/memvis/collector/state"
	"github.com/memvis/collector/util"
)

// Source - The operating system's memory, paging and segmentation queries
//
// Each query may fail with an error classified by state.IsUnavailable (try again
// next tick) or state.IsUnsupported (never going to work on this platform).
type Source interface {
	QueryMemory(ctx context.Context) (state.MemorySnapshot, error)
	QueryPaging(ctx context.Context) (state.PagingSnapshot, error)
	QuerySegmentation(ctx context.Context) (state.SegmentationSnapshot, error)
}

// HostInfoProvider - Implemented by sources that know which host they describe
type HostInfoProvider interface {
	HostInfo(ctx context.Context) state.HostInfo
}

// NewSource - Returns the source selected in the config
func NewSource(conf config.Config, logger *util.Logger) (Source, error) {
	switch conf.Source {
	case config.SelfHostedSource:
		return selfhosted.NewSource(selfhosted.Options{
			TargetPids:      conf.TargetPids,
			TargetProcesses: conf.TargetProcesses,
			MaxPages:        conf.MaxPages,
			MaxSegments:     conf.MaxSegments,
		}, logger.WithPrefix("selfhosted")), nil
	case config.SyntheticSource:
		return synthetic.NewSource(conf.SyntheticSeed), nil
	}
	return nil, fmt.Errorf("unknown source %q", conf.Source)
}

// GetHostInfo - Host information of source, if it provides any
func GetHostInfo(ctx context.Context, source Source) state.HostInfo {
	if provider, ok := source.(HostInfoProvider); ok {
		return provider.HostInfo(ctx)
	}
	return state.HostInfo{}
}

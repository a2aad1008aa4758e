package selfhosted

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/memvis/collector/state"
	"github.com/memvis/collector/util"
)

// Options - Which processes to sample and how much of them
type Options struct {
	TargetPids      []int
	TargetProcesses []string
	MaxPages        int
	MaxSegments     int
}

// Source - Telemetry source for self-hosted (physical/virtual) systems
type Source struct {
	opts   Options
	logger *util.Logger

	hostOnce sync.Once
	hostInfo state.HostInfo
}

func NewSource(opts Options, logger *util.Logger) *Source {
	return &Source{opts: opts, logger: logger}
}

// QueryMemory - Virtual memory and swap usage of the host
func (s *Source) QueryMemory(ctx context.Context) (state.MemorySnapshot, error) {
	var snapshot state.MemorySnapshot

	memory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return snapshot, state.Unavailable(state.MemoryComponent, errors.Wrap(err, "failed to get virtual memory stats"))
	}
	snapshot.TotalBytes = memory.Total
	snapshot.UsedBytes = memory.Used
	snapshot.FreeBytes = memory.Free
	snapshot.AvailableBytes = memory.Available

	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return snapshot, state.Unavailable(state.MemoryComponent, errors.Wrap(err, "failed to get swap stats"))
	}
	snapshot.SwapTotalBytes = swap.Total
	snapshot.SwapUsedBytes = swap.Used
	snapshot.SwapFreeBytes = swap.Free

	return snapshot, nil
}

// HostInfo - Gets system information about this host, only asking the OS once
func (s *Source) HostInfo(ctx context.Context) state.HostInfo {
	s.hostOnce.Do(func() {
		hostInfo, err := host.InfoWithContext(ctx)
		if err != nil {
			s.logger.PrintVerbose("Failed to get host information: %s", err)
			return
		}
		s.hostInfo = state.HostInfo{
			Hostname:        hostInfo.Hostname,
			OperatingSystem: hostInfo.OS,
			Platform:        hostInfo.Platform,
			PlatformVersion: hostInfo.PlatformVersion,
			KernelVersion:   hostInfo.KernelVersion,
			Architecture:    hostInfo.KernelArch,
		}
		if hostInfo.VirtualizationRole == "guest" {
			s.hostInfo.VirtualizationSystem = hostInfo.VirtualizationSystem
		}
	})
	return s.hostInfo
}

package selfhosted

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/memvis/collector/util"
)

// targetPids - Configured PIDs plus those of processes matching the configured
// names, restricted to processes that are still running. Defaults to ourselves.
func (s *Source) targetPids(ctx context.Context) ([]int32, error) {
	if len(s.opts.TargetPids) == 0 && len(s.opts.TargetProcesses) == 0 {
		return []int32{int32(os.Getpid())}, nil
	}

	candidates := append([]int{}, s.opts.TargetPids...)
	if len(s.opts.TargetProcesses) > 0 {
		named, err := util.FindPidsByName(s.opts.TargetProcesses)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, named...)
	}

	seen := make(map[int]bool, len(candidates))
	var pids []int32
	for _, pid := range candidates {
		if seen[pid] {
			continue
		}
		seen[pid] = true

		exists, err := process.PidExistsWithContext(ctx, int32(pid))
		if err != nil {
			s.logger.PrintVerbose("Failed to check whether pid %d exists: %s", pid, err)
			continue
		}
		if !exists {
			s.logger.PrintVerbose("Skipping pid %d, process is not running", pid)
			continue
		}
		pids = append(pids, int32(pid))
	}

	if len(pids) == 0 {
		return nil, fmt.Errorf("none of the target processes are running")
	}
	return pids, nil
}

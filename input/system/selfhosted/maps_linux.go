package selfhosted

import (
	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
)

// readMappings - Memory mappings of pid, in address order
func readMappings(pid int32) ([]mapping, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open procfs")
	}
	proc, err := fs.Proc(int(pid))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open process %d", pid)
	}
	procMaps, err := proc.ProcMaps()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read memory maps of process %d", pid)
	}

	mappings := make([]mapping, 0, len(procMaps))
	for _, procMap := range procMaps {
		// Kernel-provided page above the user address space, not covered by pagemap
		if procMap.Pathname == "[vsyscall]" {
			continue
		}
		m := mapping{
			pid:   pid,
			start: uint64(procMap.StartAddr),
			end:   uint64(procMap.EndAddr),
			path:  procMap.Pathname,
		}
		if procMap.Perms != nil {
			m.exec = procMap.Perms.Execute
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// readAllMappings - Mappings of all target processes. Processes that can't be
// read are skipped, unless none can be read at all.
func (s *Source) readAllMappings(pids []int32) ([]mapping, error) {
	var all []mapping
	var lastErr error
	readAny := false
	for _, pid := range pids {
		mappings, err := readMappings(pid)
		if err != nil {
			s.logger.PrintVerbose("%s", err)
			lastErr = err
			continue
		}
		readAny = true
		all = append(all, mappings...)
	}
	if !readAny && lastErr != nil {
		return nil, lastErr
	}
	return all, nil
}

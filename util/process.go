package util

import (
	"fmt"
	"sort"

	"github.com/keybase/go-ps"
)

// CollectorExecutable - Executable name the collector runs as
const CollectorExecutable = "memvis-collector"

// FindPidsByName - PIDs of all running processes whose executable matches one of names
func FindPidsByName(names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, nil
	}

	processes, err := ps.Processes()
	if err != nil {
		return nil, fmt.Errorf("could not read process list: %s", err)
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var pids []int
	for _, p := range processes {
		if wanted[p.Executable()] {
			pids = append(pids, p.Pid())
		}
	}
	sort.Ints(pids)
	return pids, nil
}

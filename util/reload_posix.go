//go:build linux || freebsd || darwin
// +build linux freebsd darwin

package util

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// Reload - Asks a running collector process to re-read its configuration
func Reload() (reloadedPid int, err error) {
	pids, err := FindPidsByName([]string{CollectorExecutable})
	if err != nil {
		return -1, err
	}
	for _, pid := range pids {
		if pid == os.Getpid() {
			continue
		}
		process, err := os.FindProcess(pid)
		if err != nil {
			return -1, fmt.Errorf("could not find process %d: %s", pid, err)
		}
		if err = process.Signal(syscall.SIGHUP); err != nil {
			return -1, fmt.Errorf("could not send SIGHUP to process: %s", err)
		}
		return pid, nil
	}
	return -1, errors.New("could not find collector in process list; try restarting the memvis collector process")
}

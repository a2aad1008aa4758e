package selfhosted

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sys/unix"

	"github.com/memvis/collector/state"
)

// QueryPaging - Page totals of the host, plus the residency of the first page
// of every mapping of the target processes
func (s *Source) QueryPaging(ctx context.Context) (state.PagingSnapshot, error) {
	pageSize := uint64(unix.Getpagesize())
	snapshot := state.PagingSnapshot{PageSizeBytes: pageSize}

	memory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return snapshot, state.Unavailable(state.PagingComponent, errors.Wrap(err, "failed to get virtual memory stats"))
	}
	snapshot.TotalPages, snapshot.UsedPages = pageTotals(memory.Total, memory.Used, pageSize)

	pids, err := s.targetPids(ctx)
	if err != nil {
		return snapshot, state.Unavailable(state.PagingComponent, err)
	}

	var lastErr error
	sampledAny := false
	for _, pid := range pids {
		if s.opts.MaxPages > 0 && len(snapshot.Pages) >= s.opts.MaxPages {
			break
		}
		mappings, err := readMappings(pid)
		if err != nil {
			s.logger.PrintVerbose("%s", err)
			lastErr = err
			continue
		}
		snapshot.Pages, err = s.samplePages(pid, mappings, pageSize, snapshot.Pages)
		if err != nil {
			s.logger.PrintVerbose("%s", err)
			lastErr = err
			continue
		}
		sampledAny = true
	}

	if !sampledAny && lastErr != nil {
		return snapshot, state.Unavailable(state.PagingComponent, lastErr)
	}

	return snapshot, nil
}

func (s *Source) samplePages(pid int32, mappings []mapping, pageSize uint64, pages []state.PageRecord) ([]state.PageRecord, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/pagemap", pid))
	if err != nil {
		return pages, errors.Wrapf(err, "failed to open pagemap of process %d", pid)
	}
	defer f.Close()

	buf := make([]byte, pagemapEntryBytes)
	for _, m := range mappings {
		if s.opts.MaxPages > 0 && len(pages) >= s.opts.MaxPages {
			break
		}
		n, err := unix.Pread(int(f.Fd()), buf, pagemapOffset(m.start, pageSize))
		if err != nil {
			return pages, errors.Wrapf(err, "failed to read pagemap of process %d at %#x", pid, m.start)
		}
		if n != pagemapEntryBytes {
			continue
		}
		entry := pagemapEntry(binary.NativeEndian.Uint64(buf))
		pages = append(pages, pageRecord(uint64(len(pages)), m.start, pid, entry, pageSize))
	}
	return pages, nil
}

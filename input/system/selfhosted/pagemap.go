package selfhosted

import (
	"github.com/memvis/collector/state"
)

// Layout of /proc/<pid>/pagemap, see Documentation/admin-guide/mm/pagemap.rst
const (
	pagemapEntryBytes = 8
	pagemapPresent    = uint64(1) << 63
	pagemapSwapped    = uint64(1) << 62
	pagemapFrameMask  = uint64(1)<<55 - 1
)

type pagemapEntry uint64

func (e pagemapEntry) present() bool {
	return uint64(e)&pagemapPresent != 0
}

func (e pagemapEntry) swapped() bool {
	return uint64(e)&pagemapSwapped != 0
}

// frame - Page frame number, reads as 0 unless the reader has CAP_SYS_ADMIN
func (e pagemapEntry) frame() uint64 {
	return uint64(e) & pagemapFrameMask
}

// pagemapOffset - Byte offset of the entry describing the page at virtualAddress
func pagemapOffset(virtualAddress uint64, pageSize uint64) int64 {
	return int64(virtualAddress/pageSize) * pagemapEntryBytes
}

func pageRecord(id uint64, virtualAddress uint64, pid int32, entry pagemapEntry, pageSize uint64) state.PageRecord {
	if entry.present() {
		return state.NewResidentPage(id, virtualAddress, int64(entry.frame()*pageSize), pid)
	}
	return state.NewSwappedPage(id, virtualAddress, pid)
}

// pageTotals - Total and used page counts for the given byte counts
func pageTotals(totalBytes uint64, usedBytes uint64, pageSize uint64) (total uint64, used uint64) {
	total = totalBytes / pageSize
	used = usedBytes / pageSize
	if used > total {
		used = total
	}
	return
}

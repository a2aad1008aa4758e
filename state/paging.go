package state

import (
	"gopkg.in/guregu/null.v3"
)

// PageRecord - Residency of a single virtual page
//
// Construct with NewResidentPage or NewSwappedPage, which keep PhysicalAddress
// valid exactly when the page is resident.
type PageRecord struct {
	ID              uint64
	VirtualAddress  uint64
	Resident        bool
	PhysicalAddress null.Int
	PID             int32
}

// NewResidentPage - A page currently backed by the physical frame at physicalAddress
func NewResidentPage(id uint64, virtualAddress uint64, physicalAddress int64, pid int32) PageRecord {
	return PageRecord{
		ID:              id,
		VirtualAddress:  virtualAddress,
		Resident:        true,
		PhysicalAddress: null.IntFrom(physicalAddress),
		PID:             pid,
	}
}

// NewSwappedPage - A page that is not resident in physical memory
func NewSwappedPage(id uint64, virtualAddress uint64, pid int32) PageRecord {
	return PageRecord{
		ID:             id,
		VirtualAddress: virtualAddress,
		PID:            pid,
	}
}

// PagingSnapshot - Page size, page usage totals and a sample of per-page residency
type PagingSnapshot struct {
	PageSizeBytes uint64
	TotalPages    uint64
	UsedPages     uint64

	// Order is the order the source collected them in and carries no meaning
	Pages []PageRecord
}

// ResidentCount - Number of sampled pages that are resident
func (p PagingSnapshot) ResidentCount() (count int) {
	for _, page := range p.Pages {
		if page.Resident {
			count++
		}
	}
	return
}

func (p PagingSnapshot) Validate() error {
	if p.PageSizeBytes == 0 {
		return invariantErrorf(PagingComponent, "page size must be positive")
	}
	if p.UsedPages > p.TotalPages {
		return invariantErrorf(PagingComponent, "used pages (%d) exceed total pages (%d)", p.UsedPages, p.TotalPages)
	}
	seen := make(map[uint64]bool, len(p.Pages))
	for _, page := range p.Pages {
		if seen[page.ID] {
			return invariantErrorf(PagingComponent, "duplicate page id %d", page.ID)
		}
		seen[page.ID] = true
		if page.PhysicalAddress.Valid != page.Resident {
			return invariantErrorf(PagingComponent, "page %d: physical address presence (%t) does not match residency (%t)", page.ID, page.PhysicalAddress.Valid, page.Resident)
		}
	}
	return nil
}

package state

// MemorySnapshot - Virtual memory and swap usage of the host, in bytes
type MemorySnapshot struct {
	TotalBytes     uint64
	UsedBytes      uint64
	FreeBytes      uint64
	AvailableBytes uint64

	SwapTotalBytes uint64
	SwapUsedBytes  uint64
	SwapFreeBytes  uint64
}

// OS accounting rounds (and counts buffers/cache differently), so used + free may
// exceed total by a small amount.
const memoryRoundingSlack = 0.01

// UsedPercent - Used memory as percentage of total memory
func (m MemorySnapshot) UsedPercent() float64 {
	if m.TotalBytes == 0 {
		return 0
	}
	return float64(m.UsedBytes) / float64(m.TotalBytes) * 100
}

// AvailablePercent - Available memory as percentage of total memory
func (m MemorySnapshot) AvailablePercent() float64 {
	if m.TotalBytes == 0 {
		return 0
	}
	return float64(m.AvailableBytes) / float64(m.TotalBytes) * 100
}

// SwapUsedPercent - Used swap as percentage of total swap
func (m MemorySnapshot) SwapUsedPercent() float64 {
	if m.SwapTotalBytes == 0 {
		return 0
	}
	return float64(m.SwapUsedBytes) / float64(m.SwapTotalBytes) * 100
}

func (m MemorySnapshot) Validate() error {
	limit := float64(m.TotalBytes) * (1 + memoryRoundingSlack)
	if float64(m.UsedBytes)+float64(m.FreeBytes) > limit {
		return invariantErrorf(MemoryComponent, "used (%d) + free (%d) exceeds total (%d)", m.UsedBytes, m.FreeBytes, m.TotalBytes)
	}
	if m.AvailableBytes > m.TotalBytes {
		return invariantErrorf(MemoryComponent, "available (%d) exceeds total (%d)", m.AvailableBytes, m.TotalBytes)
	}
	swapLimit := float64(m.SwapTotalBytes) * (1 + memoryRoundingSlack)
	if float64(m.SwapUsedBytes)+float64(m.SwapFreeBytes) > swapLimit {
		return invariantErrorf(MemoryComponent, "swap used (%d) + free (%d) exceeds total (%d)", m.SwapUsedBytes, m.SwapFreeBytes, m.SwapTotalBytes)
	}
	return nil
}

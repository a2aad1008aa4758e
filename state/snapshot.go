package state

import (
	"fmt"
	"time"

	uuid "github.com/satori/go.uuid"
)

// Component - One of the three sub-collections making up a snapshot
type Component int

// Treat this list as append-only and never change the order
const (
	MemoryComponent Component = iota
	PagingComponent
	SegmentationComponent
)

// ComponentCount - Number of components in a snapshot
const ComponentCount = 3

// Components - All components in the order they are collected
var Components = [ComponentCount]Component{MemoryComponent, PagingComponent, SegmentationComponent}

func (c Component) String() string {
	switch c {
	case MemoryComponent:
		return "memory"
	case PagingComponent:
		return "paging"
	case SegmentationComponent:
		return "segmentation"
	}
	return fmt.Sprintf("Component(%d)", int(c))
}

// Freshness - How the value carried for a component relates to the current tick
type Freshness int

const (
	// Fresh - collected during this tick
	Fresh Freshness = iota
	// Stale - collection failed this tick, last known good value is carried
	Stale
	// Missing - collection failed and there is no earlier value
	Missing
	// Unsupported - the platform can't provide this component, it is no longer queried
	Unsupported
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Missing:
		return "missing"
	case Unsupported:
		return "unsupported"
	}
	return fmt.Sprintf("Freshness(%d)", int(f))
}

// ComponentStatus - Freshness of one component within a snapshot
type ComponentStatus struct {
	Freshness   Freshness
	CollectedAt time.Time // When the carried value was collected, zero if none
	LastError   string    // Error of this tick's failed query, if any
}

// Notice - Informational message attached to a single snapshot only
type Notice struct {
	Component Component
	Message   string
}

// Snapshot - One timestamped bundle of memory, paging and segmentation state
//
// A snapshot is immutable once published. Components are nil when there is no
// value to carry (see Status for why).
type Snapshot struct {
	ID          uuid.UUID
	Sequence    uint64
	CollectedAt time.Time
	Host        HostInfo

	Memory       *MemorySnapshot
	Paging       *PagingSnapshot
	Segmentation *SegmentationSnapshot

	Status  [ComponentCount]ComponentStatus
	Notices []Notice
}

// StatusOf - Status of the given component
func (s Snapshot) StatusOf(c Component) ComponentStatus {
	return s.Status[c]
}

// Complete - Whether all three components carry a value
func (s Snapshot) Complete() bool {
	return s.Memory != nil && s.Paging != nil && s.Segmentation != nil
}

// Validate - Checks the invariants of all components present
func (s Snapshot) Validate() error {
	if s.Memory != nil {
		if err := s.Memory.Validate(); err != nil {
			return err
		}
	}
	if s.Paging != nil {
		if err := s.Paging.Validate(); err != nil {
			return err
		}
	}
	if s.Segmentation != nil {
		if err := s.Segmentation.Validate(); err != nil {
			return err
		}
	}
	return nil
}

package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/memvis/collector/input/system"
	"github.com/memvis/collector/state"
	"github.com/memvis/collector/util"
)

// DefaultInterval - Sampling interval used when none (or a non-positive one) is given
const DefaultInterval = time.Second

// Publisher - Receives every snapshot the sampler produces
type Publisher interface {
	Publish(snapshot state.Snapshot)
}

// SamplerOptions - Failure policy of the sampler
type SamplerOptions struct {
	// Omit snapshots while a supported component has never been collected
	RequireComplete bool

	// Treat components breaking the model invariants as failed queries
	ValidateSnapshots bool

	ErrorReporter *util.ErrorReporter
}

// SamplerStats - Counters since the sampler was created
type SamplerStats struct {
	Ticks     uint64
	Published uint64
	Omitted   uint64
	Failures  [state.ComponentCount]uint64
}

type componentValue struct {
	memory       *state.MemorySnapshot
	paging       *state.PagingSnapshot
	segmentation *state.SegmentationSnapshot
	collectedAt  time.Time
}

func (v componentValue) present() bool {
	return v.memory != nil || v.paging != nil || v.segmentation != nil
}

// Sampler - Periodically collects a snapshot from the source and publishes it
type Sampler struct {
	source    system.Source
	publisher Publisher
	logger    *util.Logger
	opts      SamplerOptions

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	// Only used from the sampling goroutine
	host           state.HostInfo
	hostKnown      bool
	sequence       uint64
	lastGood       [state.ComponentCount]componentValue
	unsupported    [state.ComponentCount]bool
	failing        [state.ComponentCount]bool
	pendingNotices []state.Notice

	statsMu sync.Mutex
	stats   SamplerStats
}

func NewSampler(source system.Source, publisher Publisher, logger *util.Logger, opts SamplerOptions) *Sampler {
	return &Sampler{source: source, publisher: publisher, logger: logger, opts: opts}
}

// Start - Begins sampling every interval, the first tick happens right away.
// Does nothing if the sampler is already running.
func (s *Sampler) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(interval, s.stop, s.done)

	s.logger.PrintVerbose("Sampling every %s", interval)
}

// Stop - Ends sampling once the current tick is complete, and returns only
// after the sampling goroutine exited. Nothing is published after Stop returns.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stop)
	<-s.done
	s.running = false

	s.logger.PrintVerbose("Sampling stopped")
}

// Running - Whether the sampling goroutine is active
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stats - Copy of the current counters
func (s *Sampler) Stats() SamplerStats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

func (s *Sampler) loop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The interval is waited out after each tick completes, so a slow tick
	// delays the following ones instead of being caught up on.
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		default:
		}

		if snapshot, ok := s.CollectOnce(ctx); ok {
			s.publisher.Publish(snapshot)
			s.count(func(stats *SamplerStats) { stats.Published++ })
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(interval)

		select {
		case <-stop:
			return
		case <-timer.C:
		}
	}
}

// CollectOnce - Runs a single tick without publishing. Returns false if the
// snapshot has to be omitted. Must not be called while the sampler is running.
func (s *Sampler) CollectOnce(ctx context.Context) (state.Snapshot, bool) {
	if !s.hostKnown {
		s.host = system.GetHostInfo(ctx, s.source)
		s.hostKnown = true
	}

	s.sequence++
	s.count(func(stats *SamplerStats) { stats.Ticks++ })

	snapshot := state.Snapshot{
		ID:          uuid.NewV4(),
		Sequence:    s.sequence,
		CollectedAt: time.Now(),
		Host:        s.host,
	}

	for _, component := range state.Components {
		s.collectComponent(ctx, component, &snapshot)
	}

	if s.opts.RequireComplete && !s.completeEnough(snapshot) {
		s.count(func(stats *SamplerStats) { stats.Omitted++ })
		s.logger.PrintVerbose("Omitting snapshot %d, not all components have been collected yet", snapshot.Sequence)
		return snapshot, false
	}

	// Surfaced once, with the first snapshot that actually goes out
	snapshot.Notices = s.pendingNotices
	s.pendingNotices = nil

	return snapshot, true
}

// Unsupported components can never be collected, so they don't hold snapshots back
func (s *Sampler) completeEnough(snapshot state.Snapshot) bool {
	for _, component := range state.Components {
		if snapshot.Status[component].Freshness == state.Missing {
			return false
		}
	}
	return true
}

func (s *Sampler) collectComponent(ctx context.Context, component state.Component, snapshot *state.Snapshot) {
	status := &snapshot.Status[component]

	if s.unsupported[component] {
		status.Freshness = state.Unsupported
		return
	}

	value, err := s.query(ctx, component)
	if err != nil {
		s.recordFailure(component, err)

		if state.IsUnsupported(err) {
			s.unsupported[component] = true
			s.lastGood[component] = componentValue{}
			s.pendingNotices = append(s.pendingNotices, state.Notice{
				Component: component,
				Message:   fmt.Sprintf("%s is not supported on this system and will not be collected: %s", component, err),
			})
			status.Freshness = state.Unsupported
			status.LastError = err.Error()
			return
		}

		status.LastError = err.Error()
		last := s.lastGood[component]
		if last.present() {
			apply(snapshot, last)
			status.Freshness = state.Stale
			status.CollectedAt = last.collectedAt
		} else {
			status.Freshness = state.Missing
		}
		return
	}

	if s.failing[component] {
		s.failing[component] = false
		s.logger.PrintInfo("Collection of %s recovered", component)
	}

	s.lastGood[component] = value
	apply(snapshot, value)
	status.Freshness = state.Fresh
	status.CollectedAt = value.collectedAt
}

func (s *Sampler) query(ctx context.Context, component state.Component) (componentValue, error) {
	value := componentValue{}
	var validationErr error

	switch component {
	case state.MemoryComponent:
		memory, err := s.source.QueryMemory(ctx)
		if err != nil {
			return value, err
		}
		value.memory = &memory
		if s.opts.ValidateSnapshots {
			validationErr = memory.Validate()
		}
	case state.PagingComponent:
		paging, err := s.source.QueryPaging(ctx)
		if err != nil {
			return value, err
		}
		value.paging = &paging
		if s.opts.ValidateSnapshots {
			validationErr = paging.Validate()
		}
	case state.SegmentationComponent:
		segmentation, err := s.source.QuerySegmentation(ctx)
		if err != nil {
			return value, err
		}
		value.segmentation = &segmentation
		if s.opts.ValidateSnapshots {
			validationErr = segmentation.Validate()
		}
	default:
		panic(fmt.Sprintf("unknown component %d", int(component)))
	}

	if validationErr != nil {
		return componentValue{}, state.Unavailable(component, validationErr)
	}

	value.collectedAt = time.Now()
	return value, nil
}

func apply(snapshot *state.Snapshot, value componentValue) {
	if value.memory != nil {
		snapshot.Memory = value.memory
	}
	if value.paging != nil {
		snapshot.Paging = value.paging
	}
	if value.segmentation != nil {
		snapshot.Segmentation = value.segmentation
	}
}

func (s *Sampler) recordFailure(component state.Component, err error) {
	s.count(func(stats *SamplerStats) { stats.Failures[component]++ })

	tags := map[string]string{"component": component.String()}
	if state.IsUnsupported(err) {
		s.logger.PrintWarning("Collection of %s is not supported, disabling it: %s", component, err)
		s.opts.ErrorReporter.Report(err, tags)
		return
	}

	// Only the first failure of a streak is worth a warning
	if s.failing[component] {
		s.logger.PrintVerbose("Collection of %s failed again: %s", component, err)
		return
	}
	s.failing[component] = true
	s.logger.PrintWarning("Collection of %s failed, carrying last known value: %s", component, err)
	s.opts.ErrorReporter.Report(err, tags)
}

func (s *Sampler) count(update func(stats *SamplerStats)) {
	s.statsMu.Lock()
	update(&s.stats)
	s.statsMu.Unlock()
}

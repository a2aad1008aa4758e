// Package bus distributes snapshots from the sampler to any number of
// independent subscribers.
//
// Every subscriber has its own bounded queue. Publishing never waits for a
// subscriber: when a queue is full the oldest snapshot in it is replaced and
// the subscriber is told how many it missed with its next delivery.
package bus

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/memvis/collector/state"
)

// DefaultQueueSize - Snapshots buffered per subscriber unless configured otherwise
const DefaultQueueSize = 16

// ErrUnsubscribed - Returned from Receive once the subscription has been removed
var ErrUnsubscribed = errors.New("subscription closed")

// Delivery - A snapshot handed to a subscriber
type Delivery struct {
	Snapshot state.Snapshot

	// Snapshots dropped for this subscriber since its previous delivery
	Skipped uint64
}

// Err - state.ErrSubscriberOverflow (wrapped with the number of lost snapshots)
// if snapshots were replaced before this delivery, nil otherwise
func (d Delivery) Err() error {
	if d.Skipped == 0 {
		return nil
	}
	return errors.Wrapf(state.ErrSubscriberOverflow, "%d snapshots replaced before sequence %d", d.Skipped, d.Snapshot.Sequence)
}

// Bus - Fan-out point between the sampler and consumers
type Bus struct {
	queueSize int

	mu          sync.Mutex
	subscribers []*Subscription
	closed      bool
}

func New(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Bus{queueSize: queueSize}
}

// Subscribe - Registers a new consumer. It only receives snapshots published
// after this call.
func (b *Bus) Subscribe() *Subscription {
	sub := newSubscription(b.queueSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.close()
		return sub
	}
	b.subscribers = append(b.subscribers, sub)
	return sub
}

// Unsubscribe - Removes a consumer. Once this returns nothing more is delivered
// to it, even if a Publish is running concurrently. Calling it again is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	for idx, s := range b.subscribers {
		if s == sub {
			b.subscribers = append(b.subscribers[:idx:idx], b.subscribers[idx+1:]...)
			break
		}
	}
	b.mu.Unlock()

	sub.close()
}

// Publish - Hands snapshot to all current subscribers without blocking on any of them
func (b *Bus) Publish(snapshot state.Snapshot) {
	b.mu.Lock()
	subscribers := b.subscribers
	b.mu.Unlock()

	for _, sub := range subscribers {
		sub.offer(snapshot)
	}
}

// Len - Number of current subscribers
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Close - Closes all subscriptions. Subscriptions made afterwards start out closed.
func (b *Bus) Close() {
	b.mu.Lock()
	subscribers := b.subscribers
	b.subscribers = nil
	b.closed = true
	b.mu.Unlock()

	for _, sub := range subscribers {
		sub.close()
	}
}

// Subscription - Handle of a single consumer
type Subscription struct {
	mu      sync.Mutex
	queue   []state.Snapshot
	head    int
	count   int
	skipped uint64 // since last delivery
	total   uint64 // since subscribing
	closed  bool

	ready chan struct{} // signalled (non-blocking) whenever something was queued
	done  chan struct{} // closed on unsubscribe
}

func newSubscription(queueSize int) *Subscription {
	return &Subscription{
		queue: make([]state.Snapshot, queueSize),
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (s *Subscription) offer(snapshot state.Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.count == len(s.queue) {
		// Replace oldest
		s.queue[s.head] = state.Snapshot{}
		s.head = (s.head + 1) % len(s.queue)
		s.count--
		s.skipped++
		s.total++
	}
	s.queue[(s.head+s.count)%len(s.queue)] = snapshot
	s.count++
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for i := range s.queue {
		s.queue[i] = state.Snapshot{}
	}
	s.count = 0
	close(s.done)
}

// TryReceive - Next queued snapshot, if there is one
func (s *Subscription) TryReceive() (Delivery, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Delivery{}, false, ErrUnsubscribed
	}
	if s.count == 0 {
		return Delivery{}, false, nil
	}
	delivery := Delivery{Snapshot: s.queue[s.head], Skipped: s.skipped}
	s.queue[s.head] = state.Snapshot{}
	s.head = (s.head + 1) % len(s.queue)
	s.count--
	s.skipped = 0
	return delivery, true, nil
}

// Receive - Waits for the next snapshot, until ctx is done or the subscription is closed
func (s *Subscription) Receive(ctx context.Context) (Delivery, error) {
	for {
		delivery, ok, err := s.TryReceive()
		if err != nil || ok {
			return delivery, err
		}
		select {
		case <-s.ready:
		case <-s.done:
			return Delivery{}, ErrUnsubscribed
		case <-ctx.Done():
			return Delivery{}, ctx.Err()
		}
	}
}

// Pending - Number of snapshots waiting to be received
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Skipped - Snapshots dropped for this subscriber since it subscribed
func (s *Subscription) Skipped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Done - Closed once the subscription has been removed
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

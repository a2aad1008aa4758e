package bus_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/memvis/collector/output/bus"
	"github.com/memvis/collector/state"
)

func snapshot(seq uint64) state.Snapshot {
	return state.Snapshot{Sequence: seq}
}

func TestNoReplay(t *testing.T) {
	b := bus.New(8)
	early := b.Subscribe()
	for i := uint64(1); i <= 3; i++ {
		b.Publish(snapshot(i))
	}

	late := b.Subscribe()
	if pending := late.Pending(); pending != 0 {
		t.Fatalf("late subscriber: expected no replayed snapshots; actual %d", pending)
	}

	b.Publish(snapshot(4))

	delivery, ok, err := late.TryReceive()
	if err != nil || !ok {
		t.Fatalf("late subscriber: expected a delivery; got ok=%t err=%v", ok, err)
	}
	if delivery.Snapshot.Sequence != 4 {
		t.Errorf("late subscriber: expected sequence 4; actual %d", delivery.Snapshot.Sequence)
	}
	if early.Pending() != 4 {
		t.Errorf("early subscriber: expected 4 pending; actual %d", early.Pending())
	}
}

func TestOrderedDelivery(t *testing.T) {
	b := bus.New(4)
	sub := b.Subscribe()
	for i := uint64(1); i <= 3; i++ {
		b.Publish(snapshot(i))
	}
	for want := uint64(1); want <= 3; want++ {
		delivery, err := sub.Receive(context.Background())
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if delivery.Snapshot.Sequence != want || delivery.Skipped != 0 {
			t.Errorf("expected sequence %d without skips; actual %d (skipped %d)", want, delivery.Snapshot.Sequence, delivery.Skipped)
		}
	}
}

func TestSlowConsumerOverflow(t *testing.T) {
	const bound = 4
	b := bus.New(bound)
	slow := b.Subscribe()
	fast := b.Subscribe()

	for i := uint64(1); i <= bound+5; i++ {
		b.Publish(snapshot(i))
		if _, ok, _ := fast.TryReceive(); !ok {
			t.Fatalf("fast subscriber: expected delivery of %d", i)
		}
	}

	if pending := slow.Pending(); pending > bound {
		t.Errorf("slow subscriber: queue exceeds bound %d: %d", bound, pending)
	}
	if skipped := slow.Skipped(); skipped < 5 {
		t.Errorf("slow subscriber: expected at least 5 skipped; actual %d", skipped)
	}
	if fast.Skipped() != 0 {
		t.Errorf("fast subscriber: expected no skips; actual %d", fast.Skipped())
	}

	// Oldest were replaced, the latest survive, skip count comes with the next delivery
	delivery, ok, err := slow.TryReceive()
	if !ok || err != nil {
		t.Fatalf("slow subscriber: expected a delivery; got ok=%t err=%v", ok, err)
	}
	if delivery.Snapshot.Sequence != 6 || delivery.Skipped != 5 {
		t.Errorf("slow subscriber: expected sequence 6 with 5 skipped; actual %d with %d", delivery.Snapshot.Sequence, delivery.Skipped)
	}
	if err := delivery.Err(); errors.Cause(err) != state.ErrSubscriberOverflow {
		t.Errorf("slow subscriber: expected overflow error; actual %v", err)
	}
	delivery, _, _ = slow.TryReceive()
	if delivery.Skipped != 0 {
		t.Errorf("slow subscriber: skip count must reset after delivery; actual %d", delivery.Skipped)
	}
	if err := delivery.Err(); err != nil {
		t.Errorf("slow subscriber: expected no overflow error after reset; actual %v", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := bus.New(4)
	sub := b.Subscribe()
	b.Publish(snapshot(1))

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	if b.Len() != 0 {
		t.Errorf("expected no subscribers; actual %d", b.Len())
	}

	b.Publish(snapshot(2))
	if _, ok, err := sub.TryReceive(); ok || err != bus.ErrUnsubscribed {
		t.Errorf("expected ErrUnsubscribed and no delivery; got ok=%t err=%v", ok, err)
	}
	if _, err := sub.Receive(context.Background()); err != bus.ErrUnsubscribed {
		t.Errorf("Receive: expected ErrUnsubscribed; actual %v", err)
	}
	select {
	case <-sub.Done():
	default:
		t.Errorf("expected Done to be closed")
	}
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	b := bus.New(2)
	subs := make([]*bus.Subscription, 50)
	for i := range subs {
		subs[i] = b.Subscribe()
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		seq := uint64(0)
		for {
			select {
			case <-stop:
				return
			default:
				seq++
				b.Publish(snapshot(seq))
			}
		}
	}()

	for _, sub := range subs {
		b.Unsubscribe(sub)
		// Nothing may arrive after Unsubscribe returned
		if _, ok, err := sub.TryReceive(); ok || err != bus.ErrUnsubscribed {
			t.Errorf("expected closed subscription after Unsubscribe; got ok=%t err=%v", ok, err)
		}
		if sub.Pending() != 0 {
			t.Errorf("expected empty queue after Unsubscribe; actual %d", sub.Pending())
		}
	}

	close(stop)
	wg.Wait()
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	b := bus.New(4)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sub := b.Subscribe()
				sub.TryReceive()
				b.Unsubscribe(sub)
			}
		}()
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Publish(snapshot(uint64(i*100 + j)))
			}
		}(i)
	}
	wg.Wait()
	if b.Len() != 0 {
		t.Errorf("expected all subscriptions removed; actual %d", b.Len())
	}
}

func TestReceiveWaits(t *testing.T) {
	b := bus.New(4)
	sub := b.Subscribe()

	go func() {
		time.Sleep(20 * time.Millisecond)
		b.Publish(snapshot(9))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	delivery, err := sub.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if delivery.Snapshot.Sequence != 9 {
		t.Errorf("expected sequence 9; actual %d", delivery.Snapshot.Sequence)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err = sub.Receive(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded; actual %v", err)
	}
}

func TestClose(t *testing.T) {
	b := bus.New(4)
	sub := b.Subscribe()
	b.Close()

	if _, err := sub.Receive(context.Background()); err != bus.ErrUnsubscribed {
		t.Errorf("expected ErrUnsubscribed after Close; actual %v", err)
	}

	after := b.Subscribe()
	b.Publish(snapshot(1))
	if _, ok, err := after.TryReceive(); ok || err != bus.ErrUnsubscribed {
		t.Errorf("subscription after Close: expected closed; got ok=%t err=%v", ok, err)
	}
}

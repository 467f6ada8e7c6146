package checker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"order-notifier-go/exchange"
	"order-notifier-go/notify"
	"order-notifier-go/registry"
)

// countingStore counts reconciliation cycles through SubscribedUserIDs,
// which Check calls exactly once per cycle.
type countingStore struct {
	registry.Store
	cycles atomic.Int64
}

func newCountingStore() *countingStore {
	return &countingStore{Store: registry.NewMemoryStore()}
}

func (s *countingStore) SubscribedUserIDs(ctx context.Context) ([]int64, error) {
	s.cycles.Add(1)
	return s.Store.SubscribedUserIDs(ctx)
}

func newTestScheduler(store registry.Store, interval time.Duration) *Scheduler {
	c := New(store, notify.NewNotifier(nil), exchange.Deps{}, nil)
	return NewScheduler(c, interval, nil)
}

func TestSchedulerRunsImmediatelyThenOnInterval(t *testing.T) {
	store := newCountingStore()
	s := newTestScheduler(store, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// first cycle is synchronous with startup, no tick needed
	waitFor(t, func() bool { return store.cycles.Load() >= 1 }, 500*time.Millisecond)
	// later cycles arrive from the ticker
	waitFor(t, func() bool { return store.cycles.Load() >= 3 }, 2*time.Second)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestSchedulerSetInterval(t *testing.T) {
	store := newCountingStore()
	// interval long enough that only SetInterval can make ticks happen
	s := newTestScheduler(store, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitFor(t, func() bool { return store.cycles.Load() >= 1 }, 500*time.Millisecond)
	s.SetInterval(10 * time.Millisecond)
	waitFor(t, func() bool { return store.cycles.Load() >= 3 }, 2*time.Second)

	cancel()
	<-done
}

func TestSchedulerIgnoresNonPositiveInterval(t *testing.T) {
	s := newTestScheduler(newCountingStore(), time.Hour)
	s.SetInterval(0)
	s.SetInterval(-time.Second)
	select {
	case d := <-s.updates:
		t.Fatalf("non-positive interval queued: %v", d)
	default:
	}
}

func waitFor(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

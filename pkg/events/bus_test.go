package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/beacon/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvent(kind Kind) *Event {
	return &Event{ID: "e", Timestamp: time.Now(), Kind: kind}
}

func TestBusStartStopIdempotent(t *testing.T) {
	b := NewBus(4)
	b.Start()
	b.Start()
	assert.Equal(t, StateRunning, b.Stats().State)
	b.Stop()
	b.Stop()
	assert.Equal(t, StateStopped, b.Stats().State)
}

func TestBusPublishFIFOAcrossEvents(t *testing.T) {
	b := NewBus(16)
	b.Start()
	defer b.Stop()

	var mu sync.Mutex
	var order []string

	done := make(chan struct{}, 3)
	b.Subscribe(func(_ context.Context, e *Event) error {
		mu.Lock()
		order = append(order, e.ID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, nil, nil, 0)

	require.NoError(t, b.Publish(&Event{ID: "1", Kind: KindSystem}))
	require.NoError(t, b.Publish(&Event{ID: "2", Kind: KindSystem}))
	require.NoError(t, b.Publish(&Event{ID: "3", Kind: KindSystem}))

	for i := 0; i < 3; i++ {
		<-done
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"1", "2", "3"}, order)
}

func TestBusQueueFull(t *testing.T) {
	b := NewBus(1)
	b.Start()
	defer b.Stop()

	// block the sole consumer slot with a slow handler so the queue
	// itself fills up behind it.
	release := make(chan struct{})
	started := make(chan struct{})
	b.Subscribe(func(_ context.Context, e *Event) error {
		close(started)
		<-release
		return nil
	}, nil, nil, 0)

	require.NoError(t, b.Publish(newTestEvent(KindSystem)))
	<-started // first event is now being dispatched, queue is empty again but consumer busy

	require.NoError(t, b.Publish(newTestEvent(KindSystem))) // fills the 1-slot buffer
	err := b.Publish(newTestEvent(KindSystem))               // now saturated
	require.Error(t, err)
	assert.Equal(t, errs.Resource, errs.KindOf(err))

	close(release)
}

func TestBusPublishAfterStopFails(t *testing.T) {
	b := NewBus(1)
	b.Start()
	b.Stop()
	err := b.Publish(newTestEvent(KindSystem))
	require.Error(t, err)
}

func TestBusSubscriberIsolation(t *testing.T) {
	b := NewBus(4)
	b.Start()
	defer b.Stop()

	var goodCalled bool
	var mu sync.Mutex
	doneGood := make(chan struct{})

	b.Subscribe(func(_ context.Context, e *Event) error {
		panic("boom")
	}, nil, nil, 0)
	b.Subscribe(func(_ context.Context, e *Event) error {
		mu.Lock()
		goodCalled = true
		mu.Unlock()
		close(doneGood)
		return nil
	}, nil, nil, 0)

	require.NoError(t, b.Publish(newTestEvent(KindSystem)))
	<-doneGood

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, goodCalled)
}

func TestBusPriorityOrdering(t *testing.T) {
	b := NewBus(4)
	b.Start()
	defer b.Stop()

	var mu sync.Mutex
	var order []string
	all := make(chan struct{})

	record := func(name string) Handler {
		return func(_ context.Context, e *Event) error {
			mu.Lock()
			order = append(order, name)
			n := len(order)
			mu.Unlock()
			if n == 3 {
				close(all)
			}
			return nil
		}
	}

	// subscribed out of priority order: B (5), A (10), C (1)
	b.Subscribe(record("B"), nil, nil, 5)
	b.Subscribe(record("A"), nil, nil, 10)
	b.Subscribe(record("C"), nil, nil, 1)

	require.NoError(t, b.Publish(newTestEvent(KindSystem)))
	<-all

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestBusKindAndFilterMatching(t *testing.T) {
	b := NewBus(4)
	b.Start()
	defer b.Stop()

	matched := make(chan *Event, 2)
	b.Subscribe(func(_ context.Context, e *Event) error {
		matched <- e
		return nil
	}, []Kind{KindFile}, Filter{{Field: "source", Op: FilterEq, Value: "watcher"}}, 0)

	require.NoError(t, b.Publish(&Event{ID: "a", Kind: KindSystem, Source: "watcher"}))
	require.NoError(t, b.Publish(&Event{ID: "b", Kind: KindFile, Source: "other"}))
	require.NoError(t, b.Publish(&Event{ID: "c", Kind: KindFile, Source: "watcher"}))

	select {
	case e := <-matched:
		assert.Equal(t, "c", e.ID)
	case <-time.After(time.Second):
		t.Fatal("expected event c to match")
	}

	select {
	case e := <-matched:
		t.Fatalf("unexpected second match: %v", e.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus(4)
	id := b.Subscribe(func(_ context.Context, e *Event) error { return nil }, nil, nil, 0)
	assert.True(t, b.Unsubscribe(id))
	assert.False(t, b.Unsubscribe(id))
}

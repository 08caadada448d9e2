package events

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuemby/beacon/pkg/errs"
	"github.com/cuemby/beacon/pkg/log"
	"github.com/cuemby/beacon/pkg/obsmetrics"
	"github.com/google/uuid"
)

// Handler processes a single event. A returned error is captured by
// the bus and never propagated to the caller of Publish; it is
// logged and counted against the owning subscription only.
type Handler func(ctx context.Context, e *Event) error

// State is the Bus's lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	default:
		return "stopped"
	}
}

type subscription struct {
	id        string
	kinds     map[Kind]bool
	filter    Filter
	priority  int
	handler   Handler
	createdAt time.Time
}

// Stats is a snapshot of bus counters.
type Stats struct {
	State          State
	Subscribers    int
	QueueDepth     int
	QueueCapacity  int
	Published      uint64
	Dropped        uint64
	Dispatched     uint64
	HandlerErrors  uint64
}

// Bus is a bounded, single-consumer, priority-fanout event dispatcher.
type Bus struct {
	capacity int
	queue    chan *Event

	mu   sync.RWMutex
	subs map[string]*subscription

	state  atomic.Int32
	stopCh chan struct{}
	doneCh chan struct{}

	published  atomic.Uint64
	dropped    atomic.Uint64
	dispatched atomic.Uint64
	handlerErr atomic.Uint64
}

// NewBus creates a new Bus with the given bounded queue capacity.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Bus{
		capacity: capacity,
		queue:    make(chan *Event, capacity),
		subs:     make(map[string]*subscription),
	}
}

// Start transitions the bus from Stopped to Running and begins the
// dispatch loop. Start is idempotent: calling it while already
// running or draining has no effect.
func (b *Bus) Start() {
	if !b.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		return
	}
	b.stopCh = make(chan struct{})
	b.doneCh = make(chan struct{})
	go b.run()
}

// Stop transitions Running → Draining, lets the event currently being
// dispatched finish all of its handlers, then moves to Stopped. Stop
// is idempotent and blocks until the loop has fully exited.
func (b *Bus) Stop() {
	if !b.state.CompareAndSwap(int32(StateRunning), int32(StateDraining)) {
		return
	}
	close(b.stopCh)
	<-b.doneCh
	b.state.Store(int32(StateStopped))
}

// Publish enqueues an event for dispatch. It never blocks: if the
// bounded queue is saturated it returns errs.QueueFull immediately so
// the caller can retry, shed, or apply its own backpressure policy.
func (b *Bus) Publish(e *Event) error {
	if State(b.state.Load()) == StateStopped {
		return errs.New(errs.Resource, "publish", fmt.Errorf("bus is not running"))
	}
	select {
	case b.queue <- e:
		b.published.Add(1)
		obsmetrics.EventsPublishedTotal.WithLabelValues(string(e.Kind)).Inc()
		return nil
	default:
		b.dropped.Add(1)
		obsmetrics.EventsDroppedTotal.WithLabelValues(string(e.Kind)).Inc()
		return errs.QueueFull
	}
}

// Subscribe registers a new subscription. An empty kinds set matches
// every event kind. Higher priority subscriptions are invoked first
// within a single event's dispatch.
func (b *Bus) Subscribe(handler Handler, kinds []Kind, filter Filter, priority int) string {
	kindSet := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}
	sub := &subscription{
		id:        uuid.NewString(),
		kinds:     kindSet,
		filter:    filter,
		priority:  priority,
		handler:   handler,
		createdAt: time.Now(),
	}
	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()
	return sub.id
}

// Unsubscribe removes a subscription. It is idempotent: the first
// call for a given id returns true, every subsequent call returns
// false.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[id]; !ok {
		return false
	}
	delete(b.subs, id)
	return true
}

// Stats returns a snapshot of the bus's current counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()
	return Stats{
		State:         State(b.state.Load()),
		Subscribers:   n,
		QueueDepth:    len(b.queue),
		QueueCapacity: b.capacity,
		Published:     b.published.Load(),
		Dropped:       b.dropped.Load(),
		Dispatched:    b.dispatched.Load(),
		HandlerErrors: b.handlerErr.Load(),
	}
}

func (b *Bus) run() {
	defer close(b.doneCh)
	logger := log.WithComponent("eventbus")
	logger.Info().Msg("event bus started")
	for {
		select {
		case e := <-b.queue:
			obsmetrics.EventQueueDepth.Set(float64(len(b.queue)))
			b.dispatch(e)
		case <-b.stopCh:
			logger.Info().Msg("event bus draining")
			return
		}
	}
}

// dispatch resolves the matching, priority-sorted subscriptions for e
// and invokes their handlers in parallel, waiting for all of them to
// finish before returning. This keeps dispatch strictly FIFO across
// events while still allowing concurrent fan-out within one event.
func (b *Bus) dispatch(e *Event) {
	subs := b.matching(e)
	b.dispatched.Add(1)

	var wg sync.WaitGroup
	logger := log.WithComponent("eventbus")
	for _, s := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.handlerErr.Add(1)
					obsmetrics.SubscriberErrorsTotal.WithLabelValues(s.id).Inc()
					logger.Error().
						Interface("panic", r).
						Str("subscriber_id", s.id).
						Str("event_id", e.ID).
						Msg("subscriber handler panicked")
				}
			}()
			if err := s.handler(context.Background(), e); err != nil {
				b.handlerErr.Add(1)
				obsmetrics.SubscriberErrorsTotal.WithLabelValues(s.id).Inc()
				logger.Error().
					Err(err).
					Str("subscriber_id", s.id).
					Str("event_id", e.ID).
					Msg("subscriber handler failed")
			}
		}(s)
	}
	wg.Wait()
}

func (b *Bus) matching(e *Event) []*subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if len(s.kinds) > 0 && !s.kinds[e.Kind] {
			continue
		}
		if !s.filter.Match(e) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].priority > out[j].priority
	})
	return out
}

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/beacon/pkg/collectors"
	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/runtime"
)

func TestBuildHealthCheckerPicksConfiguredCheck(t *testing.T) {
	assert.Equal(t, "http", string(buildHealthChecker("c1", "docker", map[string]string{
		"beacon.health.http": "http://example/health",
	}).Type()))

	assert.Equal(t, "tcp", string(buildHealthChecker("c1", "docker", map[string]string{
		"beacon.health.tcp": "example:6379",
	}).Type()))

	assert.Equal(t, "exec", string(buildHealthChecker("c1", "docker", map[string]string{
		"beacon.health.exec": "pg_isready -U postgres",
	}).Type()))

	assert.Nil(t, buildHealthChecker("c1", "docker", map[string]string{}))
}

func TestHealthProberPublishesOnStatusFlip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rt := &fakeAdapter{
		name: "docker",
		inspectResult: &runtime.Inspect{
			Config: runtime.ContainerConfig{Labels: map[string]string{"beacon.health.http": srv.URL}},
		},
	}

	bus := events.NewBus(16)
	bus.Start()
	defer bus.Stop()

	var mu sync.Mutex
	var received []*events.Event
	bus.Subscribe(func(ctx context.Context, e *events.Event) error {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		return nil
	}, []events.Kind{events.KindLifecycle}, nil, 0)

	prober := newHealthProber(rt, bus)
	prober.config.Retries = 1

	target := collectors.Target{ContainerID: "c1", ContainerName: "web"}
	ctx := context.Background()

	// First probe: unhealthy response crosses the (Retries=1) threshold
	// immediately, so it must publish a status flip from the initial
	// optimistic health.NewStatus() healthy state.
	prober.probe(ctx, target, zerolog.Nop())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	payload := received[0].Payload.(events.LifecyclePayload)
	mu.Unlock()
	assert.Equal(t, events.LifecycleHealthStatus, payload.Action)
	mu.Lock()
	assert.Equal(t, "unhealthy", received[0].Labels["status"])
	mu.Unlock()

	// Second probe with the same result: status doesn't flip again, so
	// no second event is published.
	prober.probe(ctx, target, zerolog.Nop())
	mu.Lock()
	count := len(received)
	mu.Unlock()
	assert.Equal(t, 1, count)
}

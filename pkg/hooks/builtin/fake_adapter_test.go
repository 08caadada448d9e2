package builtin

import (
	"context"

	"github.com/cuemby/beacon/pkg/runtime"
)

type fakeAdapter struct {
	name string

	restartCalls []string
	restartErr   error

	updateCalls []string
	updateErr   error

	inspectResult *runtime.Inspect
	inspectErr    error
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Version(ctx context.Context) (string, error) { return "1.0.0", nil }

func (f *fakeAdapter) Stats(ctx context.Context, containerID string) (*runtime.Stats, error) {
	return &runtime.Stats{ID: containerID}, nil
}

func (f *fakeAdapter) Inspect(ctx context.Context, containerID string) (*runtime.Inspect, error) {
	if f.inspectErr != nil {
		return nil, f.inspectErr
	}
	if f.inspectResult != nil {
		return f.inspectResult, nil
	}
	return &runtime.Inspect{ID: containerID}, nil
}

func (f *fakeAdapter) Restart(ctx context.Context, containerID string) error {
	f.restartCalls = append(f.restartCalls, containerID)
	return f.restartErr
}

func (f *fakeAdapter) Stop(ctx context.Context, containerID string) error { return nil }
func (f *fakeAdapter) Start(ctx context.Context, containerID string) error { return nil }

func (f *fakeAdapter) Update(ctx context.Context, containerID string, cpus float64, memoryBytes int64) error {
	f.updateCalls = append(f.updateCalls, containerID)
	return f.updateErr
}

func (f *fakeAdapter) Events(ctx context.Context) (<-chan runtime.Event, <-chan error, error) {
	ch := make(chan runtime.Event)
	errc := make(chan error)
	close(ch)
	close(errc)
	return ch, errc, nil
}

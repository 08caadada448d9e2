package collectors

import (
	"context"

	"github.com/cuemby/beacon/pkg/runtime"
)

type fakeAdapter struct {
	name        string
	versionErr  error
	statsResult *runtime.Stats
	statsErr    error
	inspectResult *runtime.Inspect
	inspectErr    error
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Version(context.Context) (string, error) { return "1.0.0", f.versionErr }

func (f *fakeAdapter) Stats(context.Context, string) (*runtime.Stats, error) {
	return f.statsResult, f.statsErr
}

func (f *fakeAdapter) Inspect(context.Context, string) (*runtime.Inspect, error) {
	return f.inspectResult, f.inspectErr
}

func (f *fakeAdapter) Restart(context.Context, string) error { return nil }
func (f *fakeAdapter) Stop(context.Context, string) error    { return nil }
func (f *fakeAdapter) Start(context.Context, string) error   { return nil }
func (f *fakeAdapter) Update(context.Context, string, float64, int64) error { return nil }

func (f *fakeAdapter) Events(ctx context.Context) (<-chan runtime.Event, <-chan error, error) {
	events := make(chan runtime.Event)
	errc := make(chan error)
	close(events)
	close(errc)
	return events, errc, nil
}

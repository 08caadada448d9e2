package runtime

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/cuemby/beacon/pkg/errs"
)

// cliAdapter drives a container runtime's CLI via os/exec.
// NewDockerAdapter and NewPodmanAdapter below are thin named
// constructors over the same implementation — the two runtimes' relevant sub-commands and JSON
// shapes are compatible for beacon's purposes.
type cliAdapter struct {
	binary string
}

// NewDockerAdapter returns an Adapter that shells out to `docker`.
func NewDockerAdapter() Adapter { return &cliAdapter{binary: "docker"} }

// NewPodmanAdapter returns an Adapter that shells out to `podman`.
func NewPodmanAdapter() Adapter { return &cliAdapter{binary: "podman"} }

func (a *cliAdapter) Name() string { return a.binary }

func (a *cliAdapter) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, a.binary, args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, errs.New(errs.Dependency, "runtime."+args[0], fmt.Errorf("%s: %s", err, string(exitErr.Stderr)))
		}
		return nil, errs.New(errs.Dependency, "runtime."+args[0], err)
	}
	return out, nil
}

func (a *cliAdapter) Version(ctx context.Context) (string, error) {
	out, err := a.run(ctx, "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (a *cliAdapter) Stats(ctx context.Context, containerID string) (*Stats, error) {
	out, err := a.run(ctx, "stats", "--no-stream", "--format", "json", containerID)
	if err != nil {
		return nil, err
	}
	var s Stats
	if err := json.Unmarshal(out, &s); err != nil {
		return nil, errs.New(errs.Execution, "runtime.stats.parse", err)
	}
	return &s, nil
}

func (a *cliAdapter) Inspect(ctx context.Context, containerID string) (*Inspect, error) {
	out, err := a.run(ctx, "inspect", containerID)
	if err != nil {
		return nil, err
	}
	var results []Inspect
	if err := json.Unmarshal(out, &results); err != nil {
		return nil, errs.New(errs.Execution, "runtime.inspect.parse", err)
	}
	if len(results) == 0 {
		return nil, errs.New(errs.Dependency, "runtime.inspect", fmt.Errorf("container %s not found", containerID))
	}
	return &results[0], nil
}

func (a *cliAdapter) Restart(ctx context.Context, containerID string) error {
	_, err := a.run(ctx, "restart", containerID)
	return err
}

func (a *cliAdapter) Stop(ctx context.Context, containerID string) error {
	_, err := a.run(ctx, "stop", containerID)
	return err
}

func (a *cliAdapter) Start(ctx context.Context, containerID string) error {
	_, err := a.run(ctx, "start", containerID)
	return err
}

func (a *cliAdapter) Update(ctx context.Context, containerID string, cpus float64, memoryBytes int64) error {
	_, err := a.run(ctx, "update",
		"--cpus", strconv.FormatFloat(cpus, 'f', -1, 64),
		"--memory", strconv.FormatInt(memoryBytes, 10),
		containerID,
	)
	return err
}

func (a *cliAdapter) Events(ctx context.Context) (<-chan Event, <-chan error, error) {
	cmd := exec.CommandContext(ctx, a.binary, "events", "--format", "json", "--filter", "type=container")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, errs.New(errs.Dependency, "runtime.events", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, errs.New(errs.Dependency, "runtime.events", err)
	}

	events := make(chan Event)
	errc := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errc)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			var e Event
			if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
				continue
			}
			select {
			case events <- e:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errc <- errs.New(errs.Dependency, "runtime.events.scan", err)
		}
		_ = cmd.Wait()
	}()

	return events, errc, nil
}

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cuemby/beacon/pkg/alerts"
	"github.com/cuemby/beacon/pkg/collectors"
	"github.com/cuemby/beacon/pkg/config"
	"github.com/cuemby/beacon/pkg/errs"
	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/hooks"
	"github.com/cuemby/beacon/pkg/hooks/builtin"
	"github.com/cuemby/beacon/pkg/lifecycle"
	"github.com/cuemby/beacon/pkg/log"
	"github.com/cuemby/beacon/pkg/notify"
	"github.com/cuemby/beacon/pkg/retention"
	"github.com/cuemby/beacon/pkg/runtime"
	"github.com/cuemby/beacon/pkg/scrape"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// agent owns every subsystem beacond wires together: the bus, store,
// collectors, hooks, alert engine, notification router, and lifecycle
// manager. It has no HTTP concerns of its own — those live in serve.go.
type agent struct {
	cfg *config.Config

	bus        *events.Bus
	store      timeseries.Store
	retention  *retention.RetentionManager
	collectors *collectors.CollectorRegistry
	hookReg    *hooks.Registry
	dispatcher *hooks.Dispatcher
	alerts     *alerts.Engine
	router     *notify.Router
	lifecycle  *lifecycle.Manager
	formatter  *scrape.Formatter
	runtime    runtime.Adapter
	health     *healthProber
}

// buildAgent wires every subsystem from cfg, probing the container
// runtime and opening the configured store along the way. Nothing is
// started yet — callers invoke the returned agent's run loops.
func buildAgent(ctx context.Context, cfg *config.Config) (*agent, error) {
	rt, err := probeRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	retentionMgr := retention.NewRetentionManager(store, cfg.DefaultRetention())
	for _, rule := range cfg.Storage.Retention.Rules {
		if err := retentionMgr.AddRule(retention.RetentionRule{
			Pattern:         rule.Pattern,
			LabelFilters:    rule.LabelFilters,
			Retention:       rule.Retention.Duration,
			Priority:        rule.Priority,
			MinPointsToKeep: rule.MinPointsToKeep,
		}); err != nil {
			return nil, err
		}
	}

	collectorRegistry := collectors.NewRegistryFromConfig(collectorSpecs(cfg), rt, nil)

	bus := events.NewBus(256)

	hookReg := hooks.NewRegistry()
	registerBuiltinHooks(hookReg, rt)
	dispatcher := hooks.NewDispatcher(hookReg, cfg.Hooks.MaxConcurrent)

	router, err := buildNotifyRouter(cfg)
	if err != nil {
		return nil, err
	}

	alertEngine := alerts.NewEngine(store, alertNotifierAdapter{router}, cfg.Alerts.RetentionPeriod.Duration, cfg.Alerts.MaxAlerts)
	for _, rule := range defaultAlertRules() {
		alertEngine.AddRule(rule)
	}

	lifecycleMgr := lifecycle.NewManager(store, 15*time.Minute, 24*time.Hour)

	healthProber := newHealthProber(rt, bus)

	return &agent{
		cfg:        cfg,
		bus:        bus,
		store:      store,
		retention:  retentionMgr,
		collectors: collectorRegistry,
		hookReg:    hookReg,
		dispatcher: dispatcher,
		alerts:     alertEngine,
		router:     router,
		lifecycle:  lifecycleMgr,
		formatter:  scrape.NewFormatter(),
		runtime:    rt,
		health:     healthProber,
	}, nil
}

func probeRuntime(ctx context.Context, cfg *config.Config) (runtime.Adapter, error) {
	docker := runtime.NewDockerAdapter()
	podman := runtime.NewPodmanAdapter()

	preferred, fallback := docker, podman
	if cfg.Runtime.Preferred == "podman" {
		preferred, fallback = podman, docker
	}

	return runtime.Probe(ctx, preferred, fallback)
}

func openStore(cfg *config.Config) (timeseries.Store, error) {
	switch cfg.Storage.Backend {
	case "", "bolt":
		dir := "."
		if v, ok := cfg.Storage.Config["path"].(string); ok && v != "" {
			dir = filepath.Dir(v)
			if filepath.Base(v) == v {
				dir = v
			}
		}
		return timeseries.NewBoltStore(dir)
	case "memory":
		return timeseries.NewMemoryStore(10000), nil
	default:
		return nil, errs.New(errs.Configuration, "beacond.open_store", fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend))
	}
}

func collectorSpecs(cfg *config.Config) map[string]collectors.CollectorSpec {
	out := make(map[string]collectors.CollectorSpec, len(cfg.Collectors))
	for name, c := range cfg.Collectors {
		timeout := c.Timeout.Duration
		if timeout <= 0 {
			timeout = cfg.Global.DefaultTimeout.Duration
		}
		out[name] = collectors.CollectorSpec{
			Enabled:            c.Enabled,
			Type:               c.Type,
			CollectionInterval: c.CollectionInterval.Duration,
			Timeout:            timeout,
		}
	}
	if len(out) == 0 {
		// No collectors declared: run the default set against the
		// global interval/timeout, matching the spec's "sane defaults
		// with no config file" expectation.
		for _, kind := range []string{"cpu", "memory", "disk_io", "network", "lifecycle"} {
			out[kind] = collectors.CollectorSpec{
				Enabled:            true,
				Type:               kind,
				CollectionInterval: cfg.Global.DefaultCollectionInterval.Duration,
				Timeout:            cfg.Global.DefaultTimeout.Duration,
			}
		}
	}
	return out
}

func registerBuiltinHooks(reg *hooks.Registry, rt runtime.Adapter) {
	if _, err := reg.Register(builtin.NewContainerHealthRestartHook(rt)); err != nil {
		log.WithComponent("beacond").Warn().Err(err).Msg("failed to register restart hook")
	}
	if _, err := reg.Register(builtin.NewContainerResourceScalingHook(rt)); err != nil {
		log.WithComponent("beacond").Warn().Err(err).Msg("failed to register scaling hook")
	}
}

// alertNotifierAdapter adapts pkg/notify.Router to pkg/alerts.Notifier,
// the narrow interface alerts.Engine depends on so that package never
// imports pkg/notify.
type alertNotifierAdapter struct {
	router *notify.Router
}

func (a alertNotifierAdapter) Notify(ctx context.Context, alert *alerts.Alert, kind alerts.NotifyKind) {
	a.router.Notify(ctx, alert, kind)
}

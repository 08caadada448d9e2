package main

import (
	"context"
	"time"

	"github.com/cuemby/beacon/pkg/log"
)

// runCollectionLoop ticks every interval, running every registered
// collector against every currently-tracked container target and
// storing the resulting samples.
func (a *agent) runCollectionLoop(ctx context.Context, interval time.Duration, tracker *targetTracker) {
	logger := log.WithComponent("beacond.collect")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, target := range tracker.all() {
				samples := a.collectors.CollectAll(ctx, target)
				if len(samples) == 0 {
					continue
				}
				if err := a.store.Store(ctx, samples); err != nil {
					logger.Warn().Err(err).Str("container_id", target.ContainerID).Msg("failed to store collected samples")
				}
			}
		}
	}
}

// runAlertLoop ticks every interval, evaluating every registered alert
// rule against the store's recent samples.
func (a *agent) runAlertLoop(ctx context.Context, interval time.Duration) {
	logger := log.WithComponent("beacond.alerts")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.alerts.EvaluateTick(ctx, time.Now(), nil); err != nil {
				logger.Warn().Err(err).Msg("alert evaluation tick failed")
			}
		}
	}
}

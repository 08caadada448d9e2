package main

import (
	"context"
	"net/http"
	"time"

	"github.com/cuemby/beacon/pkg/log"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// scrapeHandler serves the current contents of the time-series store
// in Prometheus text exposition format.
func (a *agent) scrapeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		samples, err := a.allLatestSamples(ctx)
		if err != nil {
			log.WithComponent("beacond.scrape").Error().Err(err).Msg("failed to collect samples for scrape")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(a.formatter.Format(samples)))
	}
}

// allLatestSamples walks every known series and returns its most
// recent sample, the input Format expects.
func (a *agent) allLatestSamples(ctx context.Context) ([]timeseries.MetricSample, error) {
	names, err := a.store.MetricNames(ctx)
	if err != nil {
		return nil, err
	}

	var out []timeseries.MetricSample
	for _, name := range names {
		labelSets, err := a.store.SeriesLabels(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, labels := range labelSets {
			sample, ok, err := a.store.QueryLatest(ctx, name, labels)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, *sample)
			}
		}
	}
	return out, nil
}

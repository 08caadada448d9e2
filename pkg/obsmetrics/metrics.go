package obsmetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Event bus metrics
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_events_published_total",
			Help: "Total number of events published by kind",
		},
		[]string{"kind"},
	)

	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_events_dropped_total",
			Help: "Total number of events rejected because the bus queue was full",
		},
		[]string{"kind"},
	)

	EventQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "beacon_event_queue_depth",
			Help: "Current number of events waiting in the bus queue",
		},
	)

	SubscriberErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_subscriber_errors_total",
			Help: "Total number of subscriber handler errors by subscriber id",
		},
		[]string{"subscriber_id"},
	)

	// Hook dispatcher metrics
	HookRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_hook_runs_total",
			Help: "Total number of hook executions by hook id and outcome",
		},
		[]string{"hook_id", "outcome"},
	)

	HookExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beacon_hook_execution_duration_seconds",
			Help:    "Hook execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"hook_id"},
	)

	HooksInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "beacon_hooks_in_flight",
			Help: "Number of hooks currently holding a dispatcher semaphore permit",
		},
	)

	// Collector metrics
	CollectorSamplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_collector_samples_total",
			Help: "Total number of samples produced by a collector",
		},
		[]string{"collector"},
	)

	CollectorErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_collector_errors_total",
			Help: "Total number of collection errors by collector",
		},
		[]string{"collector"},
	)

	CollectorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beacon_collector_duration_seconds",
			Help:    "Time taken for a single collector call in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collector"},
	)

	// Time-series store metrics
	StoreSamplesStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_store_samples_stored_total",
			Help: "Total number of samples written to the time-series store",
		},
	)

	StoreSeriesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "beacon_store_series_total",
			Help: "Current number of distinct series (fingerprints) in the store",
		},
	)

	RetentionDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_retention_deleted_total",
			Help: "Total number of samples deleted by the retention engine",
		},
	)

	RetentionSweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beacon_retention_sweep_duration_seconds",
			Help:    "Time taken for a retention sweep cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Alert engine metrics
	AlertsFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_alerts_fired_total",
			Help: "Total number of alerts that transitioned to Firing",
		},
		[]string{"rule"},
	)

	AlertsResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_alerts_resolved_total",
			Help: "Total number of alerts that transitioned to Resolved",
		},
		[]string{"rule"},
	)

	AlertEvaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beacon_alert_evaluation_duration_seconds",
			Help:    "Time taken for one alert rule evaluation cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Notification router metrics
	NotificationsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_notifications_sent_total",
			Help: "Total number of notification attempts by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		EventsPublishedTotal,
		EventsDroppedTotal,
		EventQueueDepth,
		SubscriberErrorsTotal,
		HookRunsTotal,
		HookExecutionDuration,
		HooksInFlight,
		CollectorSamplesTotal,
		CollectorErrorsTotal,
		CollectorDuration,
		StoreSamplesStored,
		StoreSeriesTotal,
		RetentionDeletedTotal,
		RetentionSweepDuration,
		AlertsFiredTotal,
		AlertsResolvedTotal,
		AlertEvaluationDuration,
		NotificationsSentTotal,
	)
}

// Handler returns the Prometheus HTTP handler for beacon's own
// operational metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

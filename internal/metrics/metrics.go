// Package metrics exposes Prometheus run metrics for the sync pipeline. A
// run is a batch job, so the registry is written to a textfile collector
// file rather than served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feedmirror"

// Recorder collects the metrics of one process. A nil Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	planned     prometheus.Gauge
	fetches     *prometheus.CounterVec
	saved       prometheus.Counter
	enriched    prometheus.Counter
	feedEntries *prometheus.GaugeVec
	commits     prometheus.Counter
	errors      *prometheus.CounterVec
	runDuration prometheus.Gauge
	lastRun     prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewRecorder registers the run metrics on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		planned: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "articles_planned",
			Help:      "Number of articles planned for fetching in the last run",
		}),
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "article_fetches_total",
			Help:      "Article fetches by outcome",
		}, []string{"status"}),
		saved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_saved_total",
			Help:      "Article records written to the mirror",
		}),
		enriched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_enriched_total",
			Help:      "Article records rewritten after enrichment",
		}),
		feedEntries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_entries",
			Help:      "Entries in each published feed",
		}, []string{"feed"}),
		commits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_commits_total",
			Help:      "History entries appended",
		}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Item errors by kind",
		}, []string{"kind"}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 when the last run completed without a fatal error",
		}),
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Planned(n int) {
	if r == nil {
		return
	}
	r.planned.Set(float64(n))
}

func (r *Recorder) Fetched(ok, failed int) {
	if r == nil {
		return
	}
	r.fetches.WithLabelValues("ok").Add(float64(ok))
	r.fetches.WithLabelValues("failed").Add(float64(failed))
}

func (r *Recorder) Saved(n int) {
	if r == nil {
		return
	}
	r.saved.Add(float64(n))
}

func (r *Recorder) Enriched(n int) {
	if r == nil {
		return
	}
	r.enriched.Add(float64(n))
}

func (r *Recorder) FeedEntries(feed string, n int) {
	if r == nil {
		return
	}
	r.feedEntries.WithLabelValues(feed).Set(float64(n))
}

func (r *Recorder) Committed(n int) {
	if r == nil {
		return
	}
	r.commits.Add(float64(n))
}

// Error counts one item error. kind is a failure text code.
func (r *Recorder) Error(kind string) {
	if r == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	r.errors.WithLabelValues(kind).Inc()
}

// RunFinished records the run duration and completion time.
func (r *Recorder) RunFinished(duration time.Duration, at time.Time, success bool) {
	if r == nil {
		return
	}
	r.runDuration.Set(duration.Seconds())
	r.lastRun.Set(float64(at.Unix()))
	if success {
		r.lastSuccess.Set(1)
	} else {
		r.lastSuccess.Set(0)
	}
}

// WriteTextfile writes the registry in the text exposition format to path,
// for pickup by a node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

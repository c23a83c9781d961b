// Package metrics exposes the coordinator's Prometheus collectors.
//
// Grounded on the teacher's internal/metrics/metrics.go: same
// Namespace/Name/Help CounterVec/GaugeVec/HistogramVec shapes, generalized
// from download-lifecycle counters to check/update-lifecycle counters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ChecksStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "torrus",
			Name:      "checks_started_total",
			Help:      "Count of check tasks launched, by kind.",
		},
		[]string{"kind"},
	)

	DownloadsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "torrus",
			Name:      "downloads_started_total",
			Help:      "Count of download tasks launched, by kind and method.",
		},
		[]string{"kind", "method"},
	)

	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "torrus",
			Name:      "retries_total",
			Help:      "Count of retry engine invocations by outcome (launched|failover|exhausted).",
		},
		[]string{"outcome"},
	)

	ReaperPrunedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "torrus",
			Name:      "reaper_pruned_total",
			Help:      "Count of dead tasks removed by the reaper, by table.",
		},
		[]string{"table"},
	)

	ActiveCheckTasks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "torrus",
			Name:      "active_check_tasks",
			Help:      "Number of active check tasks tracked by the task table.",
		},
	)

	ActiveDownloadTasks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "torrus",
			Name:      "active_download_tasks",
			Help:      "Number of active download tasks tracked by the task table.",
		},
	)

	NotificationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "torrus",
			Name:      "notification_handling_seconds",
			Help:      "Latency of Notification Sink callback handling.",
		},
		[]string{"event"},
	)
)

// Register registers every coordinator metric into the default registry.
func Register() {
	prometheus.MustRegister(
		ChecksStarted,
		DownloadsStarted,
		RetriesTotal,
		ReaperPrunedTotal,
		ActiveCheckTasks,
		ActiveDownloadTasks,
		NotificationLatency,
	)
}

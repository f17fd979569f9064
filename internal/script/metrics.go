// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package script

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunsTotal counts script runs by outcome: "success", or the error code.
var RunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hostbind_script_runs_total",
		Help: "Total number of script runs by status",
	},
	[]string{"status"},
)

// RunDuration observes how long scripts run.
var RunDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "hostbind_script_run_duration_seconds",
		Help:    "Script run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(1e-4, 10, 6),
	},
)

// RegisterMetrics registers the script collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(RunsTotal, RunDuration)
}

func recordRun(status string, d time.Duration) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(d.Seconds())
}

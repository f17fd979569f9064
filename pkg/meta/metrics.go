// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package meta

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status labels for call metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Convention labels.
const (
	ConventionVarcall = "varcall"
	ConventionPtrcall = "ptrcall"
)

// CallsTotal counts host calls.
// Use RegisterMetrics to register this with a Prometheus registry.
var CallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hostbind_calls_total",
		Help: "Total number of host method calls",
	},
	[]string{"convention", "class", "method", "status"},
)

// CallDuration is the histogram of host call duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var CallDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "hostbind_call_duration_seconds",
		Help:    "Host method call duration in seconds",
		Buckets: []float64{1e-7, 1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 1e-1},
	},
	[]string{"convention"},
)

// RegisterMetrics registers call metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CallsTotal)
	reg.MustRegister(CallDuration)
}

func recordCall(convention string, call CallContext, err error, d time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	CallsTotal.WithLabelValues(convention, call.Class, call.Method, status).Inc()
	CallDuration.WithLabelValues(convention).Observe(d.Seconds())
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package obj

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HandleOps counts handle lifecycle operations by kind.
// Use RegisterMetrics to register this with a Prometheus registry.
var HandleOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hostbind_handle_ops_total",
		Help: "Total number of object handle operations by kind",
	},
	[]string{"op"},
)

// RegisterMetrics registers handle metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(HandleOps)
}

func recordHandleOp(op string) {
	HandleOps.WithLabelValues(op).Inc()
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Snapshot results as counted by dashboard_snapshots_total.
const (
	resultApplied   = "applied"
	resultEmpty     = "empty"
	resultNoCurrent = "no_current"
	resultStale     = "stale"
)

// Source error kinds as counted by dashboard_source_errors_total.
const (
	errKindPermission = "permission_denied"
	errKindTransport  = "transport"
)

// managerMetrics holds the Prometheus collectors of a Manager.
type managerMetrics struct {
	Snapshots       *prometheus.CounterVec
	SourceErrors    *prometheus.CounterVec
	ListenersOpened prometheus.Counter
	Consumers       prometheus.Gauge
	Connected       prometheus.Gauge
}

func newManagerMetrics(reg prometheus.Registerer) *managerMetrics {
	m := &managerMetrics{
		Snapshots: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_snapshots_total",
				Help: "Telemetry snapshots received, by result",
			},
			[]string{"result"},
		),

		SourceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_source_errors_total",
				Help: "Errors reported by the telemetry source, by kind",
			},
			[]string{"kind"},
		),

		ListenersOpened: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dashboard_listeners_opened_total",
				Help: "Telemetry subscriptions opened",
			},
		),

		Consumers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_consumers",
				Help: "Display surfaces currently attached",
			},
		),

		Connected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_connected",
				Help: "1 when the last snapshot carried a reading, 0 otherwise",
			},
		),
	}

	reg.MustRegister(
		m.Snapshots,
		m.SourceErrors,
		m.ListenersOpened,
		m.Consumers,
		m.Connected,
	)
	return m
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

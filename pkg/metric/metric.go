// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the operational metrics of the ad server. All record
// methods are nil-safe so components can run without a registry in tests.
type Metrics struct {
	registry *prometheus.Registry

	RequestsProcessed *prometheus.CounterVec
	PassbacksServed   prometheus.Counter
	DeviceDetections  prometheus.Counter
	DeviceCacheHits   prometheus.Counter
	ClicksLogged      prometheus.Counter
	ConversionsLogged prometheus.Counter
	DecisionDuration  prometheus.Histogram
}

// New creates a metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adserve",
			Name:      "requests_processed_total",
			Help:      "Total number of ad requests processed by status",
		}, []string{"status"}),
		PassbacksServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adserve",
			Name:      "passbacks_served_total",
			Help:      "Total number of requests demoted to the passback creative",
		}),
		DeviceDetections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adserve",
			Name:      "device_detections_total",
			Help:      "Total number of user agents sent to the device detector",
		}),
		DeviceCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adserve",
			Name:      "device_cache_hits_total",
			Help:      "Total number of device fingerprints served from cache",
		}),
		ClicksLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adserve",
			Name:      "clicks_logged_total",
			Help:      "Total number of click events logged",
		}),
		ConversionsLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adserve",
			Name:      "conversions_logged_total",
			Help:      "Total number of conversion events logged",
		}),
		DecisionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "adserve",
			Name:      "decision_duration_seconds",
			Help:      "Time to serve one ad decision",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.RequestsProcessed,
		m.PassbacksServed,
		m.DeviceDetections,
		m.DeviceCacheHits,
		m.ClicksLogged,
		m.ConversionsLogged,
		m.DecisionDuration,
	)

	return m
}

// Handler exposes the registry for a /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDecision records one finished decision.
func (m *Metrics) ObserveDecision(status int, passback bool, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsProcessed.WithLabelValues(strconv.Itoa(status)).Inc()
	if passback {
		m.PassbacksServed.Inc()
	}
	m.DecisionDuration.Observe(d.Seconds())
}

// DeviceLookup records a fingerprint cache hit or a detector invocation.
func (m *Metrics) DeviceLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.DeviceCacheHits.Inc()
	} else {
		m.DeviceDetections.Inc()
	}
}

// ClickLogged records a click event.
func (m *Metrics) ClickLogged() {
	if m == nil {
		return
	}
	m.ClicksLogged.Inc()
}

// ConversionLogged records a conversion event.
func (m *Metrics) ConversionLogged() {
	if m == nil {
		return
	}
	m.ConversionsLogged.Inc()
}

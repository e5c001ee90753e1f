// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
)

var _ monitoring.MonitorInterface = (*Monitor)(nil)

type Monitor struct {
	service string

	responseTime           *prometheus.HistogramVec
	dependencyAvailability *prometheus.GaugeVec

	logger logging.LoggerInterface
}

func (m *Monitor) GetService() string {
	return m.service
}

func (m *Monitor) SetResponseTimeMetric(tags map[string]string, value float64) error {
	if m.responseTime == nil {
		return fmt.Errorf("response time metric not registered")
	}

	m.responseTime.With(tags).Observe(value)
	return nil
}

func (m *Monitor) SetDependencyAvailability(tags map[string]string, value float64) error {
	if m.dependencyAvailability == nil {
		return fmt.Errorf("dependency availability metric not registered")
	}

	m.dependencyAvailability.With(tags).Set(value)
	return nil
}

func (m *Monitor) registerMetrics() {
	m.responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "http_response_time_seconds",
			Namespace: m.service,
			Help:      "HTTP response time in seconds per route and status",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)

	m.dependencyAvailability = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:      "dependency_available",
			Namespace: m.service,
			Help:      "Availability of upstream dependencies, 1 available 0 unavailable",
		},
		[]string{"component"},
	)

	for _, c := range []prometheus.Collector{m.responseTime, m.dependencyAvailability} {
		if err := prometheus.Register(c); err != nil {
			m.logger.Errorf("failed to register metric: %v", err)
		}
	}
}

func NewMonitor(service string, logger logging.LoggerInterface) *Monitor {
	m := new(Monitor)

	m.service = service
	m.logger = logger

	m.registerMetrics()

	return m
}

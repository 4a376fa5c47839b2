package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SimulatorMetrics contains Prometheus metrics for the simulator service.
type SimulatorMetrics struct {
	HTTPRequestsTotal *prometheus.CounterVec
	ReadingsGenerated *prometheus.CounterVec
	DevicesSimulated  prometheus.Gauge
}

// NewSimulatorMetrics creates and registers simulator service metrics.
func NewSimulatorMetrics(namespace string) *SimulatorMetrics {
	m := &SimulatorMetrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		ReadingsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generator",
				Name:      "readings_total",
				Help:      "Total number of synthetic readings generated",
			},
			[]string{"device_id"},
		),
		DevicesSimulated: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "generator",
				Name:      "devices",
				Help:      "Number of simulated devices",
			},
		),
	}

	MustRegister(
		m.HTTPRequestsTotal,
		m.ReadingsGenerated,
		m.DevicesSimulated,
	)

	return m
}

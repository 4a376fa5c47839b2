package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DashboardMetrics contains Prometheus metrics for the dashboard service.
type DashboardMetrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	UpstreamCalls        *prometheus.CounterVec
	UpstreamCallDuration *prometheus.HistogramVec
	UpstreamErrors       *prometheus.CounterVec
	TemplateRenderTime   *prometheus.HistogramVec
	TemplateRenderErrors *prometheus.CounterVec
	StatusRefreshCycles  *prometheus.CounterVec
	DevicesOnline        prometheus.Gauge
}

// NewDashboardMetrics creates and registers dashboard service metrics.
func NewDashboardMetrics(namespace string) *DashboardMetrics {
	m := &DashboardMetrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		UpstreamCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "calls_total",
				Help:      "Total number of sensor API calls",
			},
			[]string{"operation", "status"}, // status: success, error, no_data
		),
		UpstreamCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "call_duration_seconds",
				Help:      "Duration of sensor API calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		UpstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "errors_total",
				Help:      "Total number of sensor API errors",
			},
			[]string{"operation", "error_type"},
		),
		TemplateRenderTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "template",
				Name:      "render_duration_seconds",
				Help:      "Duration of template rendering",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"template"},
		),
		TemplateRenderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "template",
				Name:      "render_errors_total",
				Help:      "Total number of template rendering errors",
			},
			[]string{"template", "error_type"},
		),
		StatusRefreshCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "status",
				Name:      "refresh_cycles_total",
				Help:      "Total number of device status refresh cycles",
			},
			[]string{"result"}, // result: completed, aborted, superseded
		),
		DevicesOnline: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "status",
				Name:      "devices_online",
				Help:      "Number of devices currently considered online",
			},
		),
	}

	MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.UpstreamCalls,
		m.UpstreamCallDuration,
		m.UpstreamErrors,
		m.TemplateRenderTime,
		m.TemplateRenderErrors,
		m.StatusRefreshCycles,
		m.DevicesOnline,
	)

	return m
}

// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CaptureSessions     *prometheus.CounterVec
	DetectDuration      prometheus.Histogram
	CodesIssued         prometheus.Counter
	TokenExchanges      *prometheus.CounterVec
	HousekeepingDeleted *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sorria_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sorria_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CaptureSessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sorria_capture_sessions_total",
			Help: "Finished capture sessions by flow and outcome",
		}, []string{"flow", "outcome"}),
		DetectDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sorria_extractor_detect_duration_seconds",
			Help:    "Latency of one frame detection",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		CodesIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "sorria_authorization_codes_issued_total",
			Help: "Authorization codes issued after a successful login",
		}),
		TokenExchanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sorria_token_exchanges_total",
			Help: "Authorization code exchanges by result",
		}, []string{"result"}),
		HousekeepingDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sorria_housekeeping_deleted_total",
			Help: "Rows removed by housekeeping tasks",
		}, []string{"task"}),
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSession(flow, outcome string) {
	m.CaptureSessions.WithLabelValues(flow, outcome).Inc()
}

func (m *Metrics) ObserveDetect(elapsed time.Duration) {
	m.DetectDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) IncrementCodesIssued() {
	m.CodesIssued.Inc()
}

func (m *Metrics) ObserveExchange(result string) {
	m.TokenExchanges.WithLabelValues(result).Inc()
}

func (m *Metrics) AddDeleted(task string, n int64) {
	m.HousekeepingDeleted.WithLabelValues(task).Add(float64(n))
}

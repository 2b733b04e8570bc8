// Package metrics defines the Prometheus collectors of the server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// Metrics contains the custom collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	AuthAttempts    *prometheus.CounterVec
	Uploads         *prometheus.CounterVec
	UploadedBytes   prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipshare_auth_attempts_total",
				Help: "Register and login attempts by operation and result",
			},
			[]string{"op", "result"},
		),
		Uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipshare_uploads_total",
				Help: "Video uploads by result",
			},
			[]string{"result"},
		),
		UploadedBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clipshare_uploaded_bytes_total",
				Help: "Bytes stored on the media host",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipshare_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clipshare_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipshare_cache_lookups_total",
				Help: "Listing cache lookups by result",
			},
			[]string{"result"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipshare_events_published_total",
				Help: "Domain events by routing key and result",
			},
			[]string{"key", "result"},
		),
	}

	reg.MustRegister(m.AuthAttempts, m.Uploads, m.UploadedBytes,
		m.HTTPRequests, m.HTTPDuration, m.CacheLookups, m.EventsPublished)

	return m
}

func (m *Metrics) RecordAuth(op, result string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(op, result).Inc()
}

// RecordUpload counts an upload; size is added to UploadedBytes on success.
func (m *Metrics) RecordUpload(result string, size int64) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(result).Inc()
	if result == ResultSuccess && size > 0 {
		m.UploadedBytes.Add(float64(size))
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordCache counts a cache lookup as hit or miss.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) RecordEvent(key, result string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(key, result).Inc()
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	assert.Panics(t, func() { NewMetrics(reg) }, "double registration must panic")
}

func TestRecorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAuth("login", ResultSuccess)
	m.RecordAuth("login", ResultSuccess)
	m.RecordAuth("login", ResultFailure)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("login", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("login", ResultFailure)))

	m.RecordUpload(ResultSuccess, 100)
	m.RecordUpload(ResultError, 50)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.UploadedBytes))

	m.ObserveHTTP("GET", "/api/videos", 200, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/videos", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))

	m.RecordCache(true)
	m.RecordCache(false)
	m.RecordCache(false)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))

	m.RecordEvent("video.recorded", ResultSuccess)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("video.recorded", ResultSuccess)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAuth("login", ResultSuccess)
		m.RecordUpload(ResultSuccess, 1)
		m.ObserveHTTP("GET", "/", 200, time.Second)
		m.RecordCache(true)
		m.RecordEvent("k", ResultError)
	})
}

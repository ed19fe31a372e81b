package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordSubmission(SubmissionAccepted)
	m.RecordSubmission(SubmissionAccepted)
	m.RecordSubmission(SubmissionRateLimited)
	m.RecordNotification("submitted", false)
	m.RecordRateLimit("denied")
	m.RecordStaffAction("MARK_PROCESSED")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues(SubmissionAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues(SubmissionRateLimited)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("submitted", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimit.WithLabelValues("denied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("MARK_PROCESSED")))
}

func TestMetricsServiceHandlerExposesHTTPMetrics(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/track/", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/track/",status="200"} 1`))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordSubmission(SubmissionFailed)
	m.RecordNotification("processed", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

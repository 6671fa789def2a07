package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/clienthunt-admin/internal/metrics"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"":                                    "/",
		"/api/v1/admin/users?skip=0&limit=20": "/api/v1/admin/users",
		"/api/v1/admin/users/42/ban":          "/api/v1/admin/users/:id/ban",
		"/api/v1/admin/support/threads/3f2504e0-4f89-11d3-9a0c-0305e82c3301": "/api/v1/admin/support/threads/:id",
		"/api/v1/e2e-tests/run":               "/api/v1/e2e-tests/run",
	}
	for in, want := range cases {
		require.Equal(t, want, metrics.NormalizePath(in), in)
	}
}

func TestCounters(t *testing.T) {
	m := metrics.New()
	m.ObserveAPI("POST", "/api/v1/admin/users/7/ban", "200", 0.01)
	m.ObserveAPI("POST", "/api/v1/admin/users/8/ban", "200", 0.02)
	m.CSRFRetry()
	m.CSRFMissing()
	m.CSRFMissing()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	require.Contains(t, body, `clienthunt_api_requests_total{endpoint="/api/v1/admin/users/:id/ban",method="POST",status="200"} 2`)
	require.Contains(t, body, "clienthunt_api_csrf_missing_total 2")
	require.Contains(t, body, "clienthunt_api_csrf_retries_total 1")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.ObserveAPI("GET", "/", "200", 0)
		m.CSRFRetry()
		m.CSRFMissing()
		m.CSRFFetch("ok")
		m.ObserveHTTP("GET", "/", "200", 0)
		m.SetSessions(3)
	})
}

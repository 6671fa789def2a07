// Package metrics owns the prometheus collectors for outbound backend calls and
// for the dashboard's own HTTP traffic. Collectors live on an explicit registry.
package metrics

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the console exports.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests     *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	csrfRetries     prometheus.Counter
	csrfMissing     prometheus.Counter
	csrfFetches     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	sessionsCurrent prometheus.Gauge
}

// New builds the collectors on a fresh registry, including the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clienthunt_api_requests_total",
			Help: "Backend API requests by method, endpoint and status.",
		}, []string{"method", "endpoint", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clienthunt_api_request_duration_seconds",
			Help:    "Backend API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		csrfRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clienthunt_api_csrf_retries_total",
			Help: "Requests resent once after a CSRF rejection.",
		}),
		csrfMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clienthunt_api_csrf_missing_total",
			Help: "Mutating requests sent without a CSRF header.",
		}),
		csrfFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clienthunt_api_csrf_fetches_total",
			Help: "CSRF token fetches from the issuing endpoint by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clienthunt_dashboard_requests_total",
			Help: "Dashboard HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clienthunt_dashboard_request_duration_seconds",
			Help:    "Dashboard HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		sessionsCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clienthunt_dashboard_sessions",
			Help: "Dashboard sessions currently held in memory.",
		}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiDuration, m.csrfRetries, m.csrfMissing, m.csrfFetches,
		m.httpRequests, m.httpDuration, m.sessionsCurrent,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAPI records one backend attempt. status is the HTTP status or "error".
func (m *Metrics) ObserveAPI(method, endpoint, status string, seconds float64) {
	if m == nil {
		return
	}
	ep := NormalizePath(endpoint)
	m.apiRequests.WithLabelValues(method, ep, status).Inc()
	m.apiDuration.WithLabelValues(method, ep).Observe(seconds)
}

func (m *Metrics) CSRFRetry() {
	if m == nil {
		return
	}
	m.csrfRetries.Inc()
}

func (m *Metrics) CSRFMissing() {
	if m == nil {
		return
	}
	m.csrfMissing.Inc()
}

// CSRFFetch records the outcome of a token fetch: "ok", "empty" or "error".
func (m *Metrics) CSRFFetch(result string) {
	if m == nil {
		return
	}
	m.csrfFetches.WithLabelValues(result).Inc()
}

// ObserveHTTP records one dashboard request.
func (m *Metrics) ObserveHTTP(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	p := NormalizePath(path)
	m.httpRequests.WithLabelValues(method, p, status).Inc()
	m.httpDuration.WithLabelValues(method, p).Observe(seconds)
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessionsCurrent.Set(float64(n))
}

var (
	uuidSegment  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	digitSegment = regexp.MustCompile(`^[0-9]+$`)
	hexSegment   = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
)

// NormalizePath drops the query string and replaces id-like segments with
// ":id" so label cardinality stays bounded.
func NormalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	segments := strings.Split(clean, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":id")
			continue
		}
		out = append(out, seg)
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	return uuidSegment.MatchString(seg) || digitSegment.MatchString(seg) || hexSegment.MatchString(seg)
}

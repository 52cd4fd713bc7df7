// Package metrics exposes Prometheus collectors for the scraper.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeOK             = "ok"
	OutcomeTransportError = "transport_error"
	OutcomeHTTPError      = "http_error"
)

var (
	fetchAttemptsTotal         *prometheus.CounterVec
	fetchRetriesTotal          *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	sourceRecordsTotal         *prometheus.CounterVec
	sourceRunsTotal            *prometheus.CounterVec
	sourceDurationSeconds      *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_fetch_attempts_total",
				Help: "Total number of fetch attempts, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		fetchRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_fetch_retries_total",
				Help: "Total number of fetch retries after transport failures, labeled by site.",
			},
			[]string{"site"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_fetch_bytes_total",
				Help: "Total number of response bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		sourceRecordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_source_records_total",
				Help: "Total number of records extracted, labeled by source.",
			},
			[]string{"source"},
		)

		sourceRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_source_runs_total",
				Help: "Total number of source runs, labeled by source and status.",
			},
			[]string{"source", "status"},
		)

		sourceDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_source_duration_seconds",
				Help:    "Histogram of source run durations, labeled by source.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"source"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one fetch attempt.
func ObserveFetch(rawURL, outcome string, bytesFetched int) {
	Init()
	site := SanitizeSite(rawURL)
	fetchAttemptsTotal.WithLabelValues(site, outcome).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(site).Add(float64(bytesFetched))
	}
}

// ObserveRetry records a retry scheduled after a transport failure.
func ObserveRetry(rawURL string) {
	Init()
	fetchRetriesTotal.WithLabelValues(SanitizeSite(rawURL)).Inc()
}

// ObserveSource records the outcome of one source run.
func ObserveSource(source, status string, records int, duration time.Duration) {
	Init()
	sourceRunsTotal.WithLabelValues(source, status).Inc()
	if records > 0 {
		sourceRecordsTotal.WithLabelValues(source).Add(float64(records))
	}
	sourceDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Push sends the default registry to a Prometheus pushgateway. An empty
// gatewayURL is a no-op.
func Push(ctx context.Context, gatewayURL, job string) error {
	if strings.TrimSpace(gatewayURL) == "" {
		return nil
	}
	Init()
	pusher := push.New(gatewayURL, job).Gatherer(prometheus.DefaultGatherer)
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

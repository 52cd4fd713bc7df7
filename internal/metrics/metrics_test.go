package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://WWW.ISRO.gov.in/Press.html", "www.isro.gov.in"},
		{"no scheme", "example.com/path", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestObserveFetchAndSource(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(fetchAttemptsTotal.WithLabelValues("fetch.test", OutcomeOK))
	ObserveFetch("https://fetch.test/a", OutcomeOK, 10)
	ObserveRetry("https://fetch.test/a")
	if got := testutil.ToFloat64(fetchAttemptsTotal.WithLabelValues("fetch.test", OutcomeOK)); got != before+1 {
		t.Errorf("expected fetch attempts to grow by 1, got %f -> %f", before, got)
	}

	ObserveSource("news-test", "ok", 3, time.Second)
	if got := testutil.ToFloat64(sourceRecordsTotal.WithLabelValues("news-test")); got != 3 {
		t.Errorf("expected 3 records, got %f", got)
	}
}

func TestMiddleware(t *testing.T) {
	Init()
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/mw-ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200"))
	resp, err := http.Get(ts.URL + "/mw-ok")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	if val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200")); val != before+1 {
		t.Errorf("expected httpRequestsTotal for GET 200 to grow by 1, got %f", val)
	}
}

func TestPushSkipsWithoutGateway(t *testing.T) {
	require.NoError(t, Push(context.Background(), "", "scraper"))
}

func TestPushSendsToGateway(t *testing.T) {
	var calls atomic.Int32
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	ObserveSource("push-test", "ok", 1, time.Millisecond)
	require.NoError(t, Push(context.Background(), gateway.URL, "scraper"))
	require.Equal(t, int32(1), calls.Load())
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/output"
	"github.com/JakeFAU/isro-crawler/internal/record"
	"github.com/JakeFAU/isro-crawler/internal/storage"
	"github.com/JakeFAU/isro-crawler/internal/storage/memory"
)

type mockDatasets struct {
	mock.Mock
}

func (m *mockDatasets) Object(ctx context.Context, name, ext string) ([]byte, error) {
	args := m.Called(ctx, name, ext)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

var testNames = []string{"spacecraft_missions", "news"}

func newSinkServer(t *testing.T) *Server {
	t.Helper()
	sink := output.NewSink(memory.NewBlobStore(), "", nil)
	_, err := sink.Write(context.Background(), "news", []record.Record{
		record.New("title", "Aditya-L1 launched", "url", "https://www.isro.gov.in/Press1.html"),
	})
	require.NoError(t, err)
	return NewServer(sink, testNames, zap.NewNop())
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	server := newSinkServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_ListSources(t *testing.T) {
	t.Parallel()

	server := newSinkServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sources", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sources []SourceInfo `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Sources, 2)
	assert.Equal(t, SourceInfo{
		Name:      "spacecraft_missions",
		JSON:      "/v1/sources/spacecraft_missions",
		CSV:       "/v1/sources/spacecraft_missions.csv",
		Available: false,
	}, body.Sources[0])
	assert.True(t, body.Sources[1].Available)
}

func TestServer_GetSourceJSONAndCSV(t *testing.T) {
	t.Parallel()

	server := newSinkServer(t)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sources/news", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, output.ContentTypeJSON, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[{"title":"Aditya-L1 launched","url":"https://www.isro.gov.in/Press1.html"}]`, rec.Body.String())

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sources/news.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, output.ContentTypeCSV, rec.Header().Get("Content-Type"))
	assert.Equal(t, "title,url\nAditya-L1 launched,https://www.isro.gov.in/Press1.html\n", rec.Body.String())
}

func TestServer_GetSourceNotFound(t *testing.T) {
	t.Parallel()

	server := newSinkServer(t)
	for _, path := range []string{"/v1/sources/satellites", "/v1/sources/spacecraft_missions"} {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestServer_GetSourceStoreFailure(t *testing.T) {
	t.Parallel()

	datasets := &mockDatasets{}
	datasets.On("Object", mock.Anything, "news", "json").Return(nil, errors.New("gcs unavailable"))
	server := NewServer(datasets, testNames, zap.NewNop())

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sources/news", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	datasets.AssertExpectations(t)
}

func TestServer_ListSourcesTreatsErrorsAsUnavailable(t *testing.T) {
	t.Parallel()

	datasets := &mockDatasets{}
	datasets.On("Object", mock.Anything, "spacecraft_missions", "json").
		Return(nil, fmt.Errorf("load: %w", storage.ErrObjectNotFound))
	datasets.On("Object", mock.Anything, "news", "json").Return(nil, errors.New("timeout"))
	server := NewServer(datasets, testNames, zap.NewNop())

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sources", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"available":true`)
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	server := newSinkServer(t)
	server.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	h := recoverMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

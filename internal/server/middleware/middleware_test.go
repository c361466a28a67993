package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellisd4/tagsync/internal/metrics"
	"github.com/ellisd4/tagsync/internal/server/middleware"
	"github.com/ellisd4/tagsync/pkg/logging"
)

func TestChain(t *testing.T) {
	var order []string
	track := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := middleware.Chain(track("m1"), track("m2"), track("m3"))(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
	)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"m1", "m2", "m3", "handler"}, order)
}

func TestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	var requestID string
	handler := middleware.Logger(tl.Logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = logging.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))

	require.NotEmpty(t, requestID)
	assert.Equal(t, requestID, rec.Header().Get(middleware.RequestIDHeader))
	tl.AssertContains(t, `"status":418`)
	tl.AssertContains(t, `"path":"/api/v1/sync"`)
	tl.AssertContains(t, requestID)
}

func TestLogger_KeepsIncomingRequestID(t *testing.T) {
	tl := logging.NewTestLogger(t)
	handler := middleware.Logger(tl.Logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	tl := logging.NewTestLogger(t)
	handler := middleware.Recovery(tl.Logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	tl.AssertContains(t, "Panic recovered")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, reg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	handler := middleware.Metrics(m)(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `tagsync_http_requests_total{method="GET",path="GET /items/{id}",status="202"} 1`)
	assert.Contains(t, string(body), `tagsync_http_requests_total{method="GET",path="unmatched",status="404"} 1`)
}

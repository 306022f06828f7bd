package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestHTTPMetrics_Middleware(t *testing.T) {
	t.Parallel()

	mp, reader := newManualProvider(t)
	m, err := NewHTTPMetrics(mp)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/institutions/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/institutions/1", "/institutions/2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	}

	sum, ok := collect(t, reader)["accreg_http_requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1, "both requests share the route pattern")
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	route, _ := sum.DataPoints[0].Attributes.Value("route")
	assert.Equal(t, "/institutions/{id}", route.AsString())
	status, _ := sum.DataPoints[0].Attributes.Value("status_code")
	assert.Equal(t, "404", status.AsString())
}

func TestHTTPMetrics_NilPassThrough(t *testing.T) {
	t.Parallel()

	m, err := NewHTTPMetrics(nil)
	require.NoError(t, err)

	called := false
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		wantCode   codes.Code
		wantStatus int
	}{
		{name: "success", status: http.StatusOK, wantCode: codes.Ok, wantStatus: http.StatusOK},
		{name: "server_error", status: http.StatusBadGateway, wantCode: codes.Error, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recorder := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(TracingMiddleware(tp))
			r.Post("/schedule/{action}", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/schedule/run", nil))
			assert.Equal(t, tt.wantStatus, rr.Code)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, "POST /schedule/{action}", spans[0].Name())
			assert.Equal(t, tt.wantCode, spans[0].Status().Code)

			var hasRequestID bool
			for _, attr := range spans[0].Attributes() {
				if attr.Key == "http.request_id" {
					hasRequestID = attr.Value.AsString() != ""
				}
			}
			assert.True(t, hasRequestID)
		})
	}
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rr := httptest.NewRecorder()
	TracingMiddleware(nil)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRoutePattern_Unrouted(t *testing.T) {
	t.Parallel()

	assert.Equal(t, unknownRoute, routePattern(httptest.NewRequest(http.MethodGet, "/x", nil)))
}

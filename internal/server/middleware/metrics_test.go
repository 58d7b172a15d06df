package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/meritflow/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetHTTPMetrics(t *testing.T) {
	t.Helper()
	durations, err := util.GetHistogramVec(httpRequestDuration, "code", "method", "route")
	require.NoError(t, err)
	durations.Reset()
}

func makeRequest(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestMetrics(t *testing.T) {
	resetHTTPMetrics(t)

	e := echo.New()
	e.Use(Metrics())
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/cloudant/ping", func(c echo.Context) error {
		return c.String(http.StatusServiceUnavailable, "down")
	})
	e.GET("/events/recent", func(c echo.Context) error {
		return errors.New("store unavailable")
	})

	for i := 0; i < 3; i++ {
		makeRequest(e, http.MethodGet, "/health")
		makeRequest(e, http.MethodGet, "/cloudant/ping")
	}
	makeRequest(e, http.MethodGet, "/events/recent?employee_id=E1")
	makeRequest(e, http.MethodGet, "/events/recent?employee_id=E2")
	makeRequest(e, http.MethodGet, "/courses/unknown")
	makeRequest(e, http.MethodPost, "/kudos/unknown")

	rec := makeRequest(e, http.MethodGet, "/metrics?debug=1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `meritflow_http_request_duration_seconds_count{code="503",method="GET",route="/cloudant/ping"} 3`)
	assert.Contains(t, body, `meritflow_http_request_duration_seconds_count{code="500",method="GET",route="/events/recent"} 2`)
	assert.Contains(t, body, `meritflow_http_request_duration_seconds_count{code="404",method="GET",route="unmatched"} 1`)
	assert.Contains(t, body, `meritflow_http_request_duration_seconds_count{code="404",method="POST",route="unmatched"} 1`)
	assert.NotContains(t, body, `route="/health"`)
}

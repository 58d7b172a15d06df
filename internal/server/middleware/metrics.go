package middleware

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/meritflow/pkg/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	httpRequestDuration = "meritflow_http_request_duration_seconds"
	unmatchedRoute      = "unmatched"
)

type MetricsConfig struct {
	Skipper Skipper
	// MetricsPath serves the prometheus exposition when non-empty.
	MetricsPath string
}

var DefaultMetricsConfig = MetricsConfig{
	Skipper: func(c echo.Context) bool {
		return c.Path() == "/health"
	},
	MetricsPath: "/metrics",
}

func isNotFoundHandler(handler echo.HandlerFunc) bool {
	return reflect.ValueOf(handler).Pointer() == reflect.ValueOf(echo.NotFoundHandler).Pointer()
}

func Metrics() echo.MiddlewareFunc {
	return MetricsWithConfig(DefaultMetricsConfig)
}

// MetricsWithConfig records request latency per status, method and route.
// Requests that match no route share one label value.
func MetricsWithConfig(config MetricsConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	durations, err := util.GetHistogramVec(httpRequestDuration, "code", "method", "route")
	if err != nil {
		panic(fmt.Errorf("http metrics: %w", err))
	}

	var promHandler echo.HandlerFunc
	if config.MetricsPath != "" {
		promHandler = echo.WrapHandler(promhttp.Handler())
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if promHandler != nil && req.URL.Path == config.MetricsPath {
				return promHandler(c)
			}
			if config.Skipper(c) {
				return next(c)
			}

			route := c.Path()
			if isNotFoundHandler(c.Handler()) {
				route = unmatchedRoute
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			durations.WithLabelValues(strconv.Itoa(c.Response().Status), req.Method, route).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

package middleware

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/meritflow/pkg/logger/log"
)

const XRequestID = "x-request-id"

type requestIDKey struct{}

// Client supplied ids are reused only when they look like an id.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RequestIDFromContext returns the id assigned by the RequestID middleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type RequestIDConfig struct {
	Skipper   Skipper
	Generator func() string
}

var DefaultRequestIDConfig = RequestIDConfig{
	Skipper:   DefaultSkipper,
	Generator: uuid.NewString,
}

func RequestID() echo.MiddlewareFunc {
	return RequestIDWithConfig(DefaultRequestIDConfig)
}

// RequestIDWithConfig reuses a well formed x-request-id header or generates
// one, then exposes it on the request context, the request logger, the
// request header and the response header.
func RequestIDWithConfig(config RequestIDConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultRequestIDConfig.Skipper
	}
	if config.Generator == nil {
		config.Generator = DefaultRequestIDConfig.Generator
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			req := c.Request()
			reqID := req.Header.Get(XRequestID)
			if !requestIDPattern.MatchString(reqID) {
				reqID = config.Generator()
			}

			ctx := context.WithValue(req.Context(), requestIDKey{}, reqID)
			ctx = log.With(ctx, "request_id", reqID)
			req = req.WithContext(ctx)
			req.Header.Set(XRequestID, reqID)
			c.SetRequest(req)

			c.Response().Header().Set(XRequestID, reqID)
			return next(c)
		}
	}
}

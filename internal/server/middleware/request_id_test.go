package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "reuses client id", incoming: "req-42.retry:1", keep: true},
		{name: "generates when absent"},
		{name: "replaces id with spaces", incoming: "a b"},
		{name: "replaces overlong id", incoming: strings.Repeat("x", 129)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/events/recent", nil)
			if tt.incoming != "" {
				req.Header.Set(XRequestID, tt.incoming)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var fromCtx, fromHeader string
			err := RequestID()(func(c echo.Context) error {
				fromCtx = RequestIDFromContext(c.Request().Context())
				fromHeader = c.Request().Header.Get(XRequestID)
				return c.NoContent(http.StatusOK)
			})(c)
			require.NoError(t, err)

			if tt.keep {
				assert.Equal(t, tt.incoming, fromCtx)
			} else {
				_, parseErr := uuid.Parse(fromCtx)
				assert.NoError(t, parseErr)
			}
			assert.Equal(t, fromCtx, fromHeader)
			assert.Equal(t, fromCtx, rec.Header().Get(XRequestID))
		})
	}
}

func TestRequestIDSkipped(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), httptest.NewRecorder())

	mw := RequestIDWithConfig(RequestIDConfig{Skipper: func(echo.Context) bool { return true }})
	err := mw(func(c echo.Context) error {
		assert.Empty(t, RequestIDFromContext(c.Request().Context()))
		return nil
	})(c)
	assert.NoError(t, err)
}

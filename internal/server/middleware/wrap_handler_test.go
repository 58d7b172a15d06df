package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pulseRequest struct {
	TeamID string `query:"team_id" validate:"required"`
	Limit  int    `query:"limit"`
}

type kudosRequest struct {
	Message string `json:"message" validate:"required"`
}

func TestWrapHandler(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	e.GET("/pulse/team", WrapHandler(func(c echo.Context, req pulseRequest) (map[string]any, error) {
		return map[string]any{"team_id": req.TeamID, "limit": req.Limit}, nil
	}))
	e.POST("/kudos/create", WrapHandler(func(c echo.Context, req kudosRequest) error {
		if req.Message == "fail" {
			return errors.New("store down")
		}
		return nil
	}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pulse/team?team_id=T1&limit=4", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"team_id":"T1","limit":4}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pulse/team", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/kudos/create", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}
	assert.Equal(t, http.StatusNoContent, post(`{"message":"ok"}`).Code)
	assert.Equal(t, http.StatusInternalServerError, post(`{"message":"fail"}`).Code)
}

func TestWrapHandlerRejectsBadSignatures(t *testing.T) {
	bad := []any{
		"not a func",
		func(c echo.Context) error { return nil },
		func(c echo.Context, req string) error { return nil },
		func(c echo.Context, req pulseRequest) (int, int) { return 0, 0 },
	}
	for _, f := range bad {
		_, err := wrapHandler(f)
		require.Error(t, err)
	}
}

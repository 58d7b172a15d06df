package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/meritflow/internal/repo/docstore"
	"github.com/nguyentranbao-ct/meritflow/internal/repo/iam"
	pkgmdw "github.com/nguyentranbao-ct/meritflow/internal/server/middleware"
)

// errorHandler answers upstream identity and store failures with the
// upstream status and body.
func errorHandler(log pkgmdw.Logger) echo.HTTPErrorHandler {
	handle := pkgmdw.ErrorHandler(log)
	return func(err error, c echo.Context) {
		handle(toResponseError(err), c)
	}
}

func toResponseError(err error) error {
	var (
		authErr  *iam.AuthError
		queryErr *docstore.QueryError
		writeErr *docstore.WriteError
	)
	switch {
	case errors.As(err, &authErr):
		return upstreamError(err, authErr.Status, "auth_error", authErr.Body)
	case errors.As(err, &queryErr):
		return upstreamError(err, queryErr.Status, "query_error", queryErr.Body)
	case errors.As(err, &writeErr):
		code := "write_error"
		if writeErr.Status == http.StatusConflict {
			code = "conflict"
		}
		return upstreamError(err, writeErr.Status, code, writeErr.Body)
	}
	return err
}

func upstreamError(err error, status int, code, body string) *pkgmdw.ResponseError {
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}
	return &pkgmdw.ResponseError{
		Status:       status,
		Err:          err,
		ErrorCode:    code,
		ErrorMessage: body,
	}
}

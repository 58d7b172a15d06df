package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/meritflow/pkg/ctxval"
)

const defaultMaxLoggedBody = 4 << 10

type LogRequestConfig struct {
	Logger  Logger
	Skipper Skipper
	// QueryParams adds the query string to every entry.
	QueryParams bool
	// MaxBodyBytes bounds the request and response bodies attached to
	// entries of failed requests.
	MaxBodyBytes int
}

type bodyDumpWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w *bodyDumpWriter) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyDumpWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

// LogRequest writes one entry per request once the handler returned. Fields
// recorded with ctxval.Annotate while serving are appended. Bodies are logged
// only when the response status is 400 or above.
func LogRequest(config LogRequestConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		panic("Logger is required to use LogRequest")
	}
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxLoggedBody
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			start := time.Now()
			req := c.Request().WithContext(ctxval.Wrap(c.Request().Context()))
			c.SetRequest(req)

			var reqBody []byte
			if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) && req.Body != nil {
				reqBody, _ = io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(reqBody))
			}

			res := c.Response()
			var resBuf bytes.Buffer
			res.Writer = &bodyDumpWriter{Writer: io.MultiWriter(res.Writer, &resBuf), ResponseWriter: res.Writer}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			args := make([]any, 0, 24)
			args = append(args,
				"status", res.Status,
				"method", req.Method,
				"route", c.Path(),
				"uri", req.RequestURI,
				"latency_ms", time.Since(start).Milliseconds(),
				"real_ip", c.RealIP(),
				"user_agent", req.UserAgent(),
				"request_id", RequestIDFromContext(req.Context()),
			)
			args = append(args, ctxval.Annotations(req.Context())...)
			if config.QueryParams {
				if query := c.QueryParams(); len(query) > 0 {
					args = append(args, "query", query)
				}
			}
			if res.Status >= http.StatusBadRequest {
				args = append(args,
					"request_body", loggedBody(reqBody, config.MaxBodyBytes),
					"response_body", loggedBody(resBuf.Bytes(), config.MaxBodyBytes),
				)
			}

			switch {
			case res.Status >= http.StatusInternalServerError:
				if err != nil {
					args = append(args, "error", err.Error())
				}
				config.Logger.Errorw("", args...)
			case res.Status >= http.StatusBadRequest:
				config.Logger.Warnw("", args...)
			default:
				config.Logger.Infow("", args...)
			}
			return err
		}
	}
}

// loggedBody keeps JSON bodies structured and cuts everything else to limit
// bytes.
func loggedBody(body []byte, limit int) any {
	switch {
	case len(body) == 0:
		return nil
	case len(body) > limit:
		return string(body[:limit]) + "...(truncated)"
	case json.Valid(body):
		return json.RawMessage(body)
	}
	return string(body)
}

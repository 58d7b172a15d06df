package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nguyentranbao-ct/meritflow/internal/config"
	pkgmdw "github.com/nguyentranbao-ct/meritflow/internal/server/middleware"
	"github.com/nguyentranbao-ct/meritflow/pkg/logger"
	"github.com/nguyentranbao-ct/meritflow/pkg/logger/log"
	"go.uber.org/fx"
)

// NewEcho builds the HTTP API with its middleware chain and routes.
func NewEcho(conf *config.Config, handler Controller) (*echo.Echo, error) {
	cors, err := regexp.Compile(conf.Server.CORSPattern)
	if err != nil {
		return nil, fmt.Errorf("compile cors pattern: %w", err)
	}

	httpLog := logger.MustNamed("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = errorHandler(httpLog)

	logConfig := pkgmdw.LogRequestConfig{
		Logger:      httpLog,
		Skipper:     skipRequestLog,
		QueryParams: true,
	}

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return err
		},
	}))
	e.Use(pkgmdw.CORS(cors))

	e.GET("/health", handler.Health)
	e.GET("/cloudant/ping", pkgmdw.WrapHandler(handler.CloudantPing))
	e.GET("/events/recent", pkgmdw.WrapHandler(handler.RecentEvents))
	e.GET("/courses/search", pkgmdw.WrapHandler(handler.SearchCourses))
	e.POST("/kudos/create", pkgmdw.WrapHandler(handler.CreateKudos))
	e.GET("/kudos/pending", pkgmdw.WrapHandler(handler.PendingKudos))
	e.GET("/pulse/team", pkgmdw.WrapHandler(handler.TeamPulse))

	return e, nil
}

// skipRequestLog leaves liveness and scrape traffic out of the request log.
func skipRequestLog(c echo.Context) bool {
	return c.Path() == "/health" || c.Request().URL.Path == "/metrics"
}

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	e *echo.Echo,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr)
				if err := e.Start(conf.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
					log.Errorw(ctx, "HTTP server stopped", "error", err)
					_ = sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

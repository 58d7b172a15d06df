package app

import (
	"github.com/nguyentranbao-ct/meritflow/internal/config"
	"github.com/nguyentranbao-ct/meritflow/internal/kafka"
	"github.com/nguyentranbao-ct/meritflow/internal/server"
	"github.com/nguyentranbao-ct/meritflow/internal/usecase"
	"github.com/nguyentranbao-ct/meritflow/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Invoke builds the API process around conf and runs funcs once every
// dependency is constructed.
func Invoke(conf *config.Config, funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	log.Debugw("config loaded", zap.Reflect("config", redacted(conf)))
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			newStore,
			kafka.NewKudosPublisher,

			usecase.NewEngagementUsecase,

			server.NewHandler,
			server.NewEcho,
		),
		fx.Supply(conf),
		fx.Invoke(funcs...),
	)
}

// redacted returns a copy of conf that is safe to log.
func redacted(conf *config.Config) config.Config {
	c := *conf
	if c.Cloudant.APIKey != "" {
		c.Cloudant.APIKey = "***"
	}
	return c
}

// Package log writes through the process logger and attaches the key/value
// pairs carried by the context, such as the request id.
package log

import (
	"context"

	"github.com/nguyentranbao-ct/meritflow/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type fieldsKey struct{}

// With returns a context whose log lines carry kv in addition to any pairs
// already attached.
func With(ctx context.Context, kv ...any) context.Context {
	if len(kv) == 0 {
		return ctx
	}
	prev := fields(ctx)
	merged := make([]any, 0, len(prev)+len(kv))
	merged = append(merged, prev...)
	merged = append(merged, kv...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

func fields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	kv, _ := ctx.Value(fieldsKey{}).([]any)
	return kv
}

func sugar(ctx context.Context) *zap.SugaredLogger {
	l := logger.L().WithOptions(zap.AddCallerSkip(1)).Sugar()
	if kv := fields(ctx); len(kv) > 0 {
		l = l.With(kv...)
	}
	return l
}

func Logw(ctx context.Context, level zapcore.Level, msg string, kv ...any) {
	sugar(ctx).Logw(level, msg, kv...)
}

func Debugw(ctx context.Context, msg string, kv ...any) {
	sugar(ctx).Debugw(msg, kv...)
}

func Infow(ctx context.Context, msg string, kv ...any) {
	sugar(ctx).Infow(msg, kv...)
}

func Warnw(ctx context.Context, msg string, kv ...any) {
	sugar(ctx).Warnw(msg, kv...)
}

func Errorw(ctx context.Context, msg string, kv ...any) {
	sugar(ctx).Errorw(msg, kv...)
}

func Fatal(args ...any) {
	logger.L().Sugar().Fatal(args...)
}

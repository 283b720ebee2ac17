// Package logger provides a structured, levelled logger built on log/slog.
//
// The client logs to stdout (text in development, JSON in production) and can
// additionally ship every record to a central MongoDB collection when
// MONGO_LOG_URI is configured. See mongo_handler.go.
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order confirmed", "merchant_uid", uid)
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/hyunwoopark/shopfront/config"
)

var L *slog.Logger

func init() {
	var level slog.Level
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: level}

	switch config.AppEnv() {
	case "production", "prod":
		level = slog.LevelInfo
		opts.Level = level
		handler = slog.NewJSONHandler(os.Stdout, opts) // structured JSON for log aggregators
	default:
		level = slog.LevelDebug
		opts.Level = level
		handler = slog.NewTextHandler(os.Stdout, opts) // human-readable for dev
	}

	L = slog.New(handler)
	slog.SetDefault(L)
}

// EnableCentralSink fans the base logger out to an additional handler,
// typically the Mongo handler for fleet deployments. Returns the previous
// logger so callers can restore it.
func EnableCentralSink(h slog.Handler) *slog.Logger {
	prev := L
	L = slog.New(NewMultiHandler(prev.Handler(), h))
	slog.SetDefault(L)
	return prev
}

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the *slog.Logger stored in ctx by InjectLogger, or the
// base logger when none is present.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by reqid.Middleware, not usually needed elsewhere.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }

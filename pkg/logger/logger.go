// Package logger provides the grinfood structured logger built on log/slog.
//
// WithCtx returns the per-request logger injected by middleware.Logger, so
// every line written while serving a request carries its request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order created", "order_id", id)
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/shashiranjanraj/grinfood/config"
)

var L *slog.Logger

// sink is the optional Mongo handler installed by UseMongo.
var sink *MongoHandler

func init() {
	L = slog.New(baseHandler())
	slog.SetDefault(L)
}

func baseHandler() slog.Handler {
	switch config.AppEnv() {
	case "production", "prod":
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	case "test":
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})
	default:
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// UseMongo tees every record into the given MongoDB collection in addition to
// stdout. Call Close on shutdown to flush the buffered documents.
func UseMongo(uri, db, collection string) error {
	h, err := NewMongoHandler(uri, db, collection)
	if err != nil {
		return err
	}
	sink = h
	L = slog.New(NewMultiHandler(baseHandler(), h))
	slog.SetDefault(L)
	return nil
}

// Close flushes the Mongo sink, if any.
func Close() {
	if sink != nil {
		sink.Close()
		sink = nil
	}
}

type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or the base
// logger when none is present.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a request-scoped logger into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }

// Package main is the entry point for the accreditation registry sync server.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stacklok/accreg-sync/cmd/accreg-sync/app"
	"github.com/stacklok/accreg-sync/internal/config"
)

// getLogLevel parses the ACCREG_LOG_LEVEL environment variable and returns the corresponding slog.Level.
// Falls back to LOG_LEVEL, then to slog.LevelInfo.
func getLogLevel() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
		return slog.LevelInfo
	}
}

// newHandler builds a JSON zap core behind logr. logr maps slog levels to
// verbosity, so debug is zap level -4 and warn records share the info verbosity.
func newHandler(level slog.Level) (slog.Handler, func(), error) {
	zapLevel := zapcore.InfoLevel
	switch {
	case level <= slog.LevelDebug:
		zapLevel = zapcore.Level(slog.LevelDebug)
	case level >= slog.LevelError:
		zapLevel = zapcore.ErrorLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapLevel)
	zc.Sampling = nil
	// stderr keeps stdout clean for commands that print data (version --format json)
	zc.OutputPaths = []string{"stderr"}
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := zc.Build()
	if err != nil {
		return nil, nil, err
	}

	return logr.ToSlogHandler(zapr.NewLogger(zl)), func() { _ = zl.Sync() }, nil
}

// traceHandler wraps an slog.Handler to automatically inject OpenTelemetry
// trace_id and span_id into every log record, enabling log-trace correlation.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

func main() {
	baseHandler, flush, err := newHandler(getLogLevel())
	if err != nil {
		slog.Error("Failed to build logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(&traceHandler{Handler: baseHandler}))

	err = app.NewRootCmd().Execute()
	flush()
	if err != nil {
		os.Exit(1)
	}
}

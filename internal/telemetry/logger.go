// Package telemetry holds the process-wide structured logger.
package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
)

// InitLogger installs the default slog logger. Records are written as JSON
// to out (stdout when nil) and, when logFile is set, appended to that file.
// The returned func closes the log file and is safe to call when none was opened.
func InitLogger(debug bool, logFile string, out io.Writer) func() error {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if out == nil {
		out = os.Stdout
	}

	var handler slog.Handler = slog.NewJSONHandler(out, opts)
	closeFile := func() error { return nil }

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			slog.New(handler).Error("Failed to open log file, logging to output only", "path", logFile, "error", err)
		} else {
			handler = fanout{handler, slog.NewJSONHandler(f, opts)}
			closeFile = f.Close
		}
	}

	slog.SetDefault(slog.New(handler))
	return closeFile
}

// fanout sends every record to each of its handlers.
type fanout []slog.Handler

func (h fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, inner := range h {
		if inner.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to every enabled sink; a failing sink does not starve the rest.
func (h fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, inner := range h {
		if inner.Enabled(ctx, record.Level) {
			errs = append(errs, inner.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(h))
	for i, inner := range h {
		out[i] = inner.WithAttrs(attrs)
	}
	return out
}

func (h fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(h))
	for i, inner := range h {
		out[i] = inner.WithGroup(name)
	}
	return out
}

func LogDebug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

func LogInfo(msg string, args ...any) {
	slog.Info(msg, args...)
}

func LogWarn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// LogError logs msg at error level with err under the "error" key.
func LogError(msg string, err error, args ...any) {
	slog.Error(msg, append(args, "error", err)...)
}

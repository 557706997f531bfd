package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(newLogger(os.Stdout, os.Getenv("ENVIRONMENT")))
}

// Init rebuilds the process logger for the given environment. Development gets
// colorized tint output, everything else JSON.
func Init(env string) {
	current.Store(newLogger(os.Stdout, env))
}

// SetOutput is used by tests to capture log lines.
func SetOutput(w io.Writer, env string) {
	current.Store(newLogger(w, env))
}

func newLogger(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "development" || env == "local" {
		level = slog.LevelDebug
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// L exposes the structured logger for callers that want key/value attributes.
func L() *slog.Logger {
	return current.Load()
}

func Info(format string, v ...interface{}) {
	L().Info(fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	L().Error(fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	L().Debug(fmt.Sprintf(format, v...))
}

func Warn(format string, v ...interface{}) {
	L().Warn(fmt.Sprintf(format, v...))
}

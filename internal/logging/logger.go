// Package logging wraps zap for the CLI, the HTTP API and the store.
package logging

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/insightdelivered/statement-extractor/internal/config"
)

// Logger is a zap.Logger that can be handed to the extraction collaborators.
type Logger struct {
	*zap.Logger
}

// New builds a logger from the log section of the configuration. Output goes
// to stderr so the CLI's report on stdout stays clean. The console format is
// meant for terminals and adds caller information.
func New(cfg config.LogConfig) (*Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var zc zap.Config
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		zc = zap.NewProductionConfig()
		zc.DisableCaller = true
	case "console":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = true
	zc.Sampling = nil
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{zl}, nil
}

// NewNoOpLogger discards everything. Tests use it.
func NewNoOpLogger() *Logger {
	return &Logger{zap.NewNop()}
}

// Named returns a child logger for one component, e.g. "api".
func (l *Logger) Named(name string) *Logger {
	return &Logger{l.Logger.Named(name)}
}

var global atomic.Pointer[Logger]

func init() {
	global.Store(NewNoOpLogger())
}

// SetGlobal replaces the process-wide logger used by the extractor and the
// store. A nil logger is ignored.
func SetGlobal(l *Logger) {
	if l != nil {
		global.Store(l)
	}
}

// L returns the process-wide logger. It discards output until SetGlobal is
// called.
func L() *Logger {
	return global.Load()
}

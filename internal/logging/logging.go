// Package logging builds the zap loggers of the voidc command.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the level and destination of the log.
type Config struct {
	// Verbose enables debug logging.
	Verbose bool

	// File, if set, receives JSON logs rotated by size instead of the
	// console output going to Stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int

	// Stderr is the console destination; os.Stderr when nil.
	Stderr io.Writer
}

// New returns a logger for c and a function that flushes and closes it.
func New(c Config) (*zap.Logger, func()) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if c.Verbose {
		level.SetLevel(zap.DebugLevel)
	}

	var core zapcore.Core
	var closer io.Closer
	if c.File != "" {
		w := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    orDefault(c.MaxSizeMB, 10),
			MaxBackups: orDefault(c.MaxBackups, 3),
		}
		closer = w
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		core = zapcore.NewCore(enc, zapcore.AddSync(w), level)
	} else {
		out := c.Stderr
		if out == nil {
			out = os.Stderr
		}
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(out), level)
	}

	log := zap.New(core)
	return log, func() {
		_ = log.Sync()
		if closer != nil {
			_ = closer.Close()
		}
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

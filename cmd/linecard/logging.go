package main

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logMode selects the log encoding.
type logMode int

const (
	logConsole logMode = iota // human-readable, for one-shot commands
	logJSON                   // structured, for the server
)

// newLogger builds a zap logger writing to w. The level is info, error
// with quiet, or debug with verbose.
func newLogger(w io.Writer, mode logMode, common commonFlags) *zap.Logger {
	level := zapcore.InfoLevel
	switch {
	case common.verbose:
		level = zapcore.DebugLevel
	case common.quiet:
		level = zapcore.ErrorLevel
	}

	var enc zapcore.Encoder
	if mode == logJSON {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller(), zap.ErrorOutput(zapcore.AddSync(w)))
}

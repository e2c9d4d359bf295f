package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New installs the global zap logger. format "json" writes JSON lines,
// anything else a human readable console encoding.
func New(debug bool, format string) {
	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.ISO8601TimeEncoder
	pe.MessageKey = "message"
	pe.TimeKey = "time"

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(pe)
	} else {
		pe.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(pe)
	}

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	logger := zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level))
	zap.ReplaceGlobals(logger)
}

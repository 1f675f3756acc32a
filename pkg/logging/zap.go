package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ZapConfig configures the zap-backed logger used by the jmxctl binary.
// Library consumers normally wire their own sinks via NewLogger instead.
type ZapConfig struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string

	// FilePath, if set, routes output to a rotated log file instead of
	// stderr.
	FilePath string

	// Rotation settings, used only when FilePath is set.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewZapLogger builds a Logger backed by a zap SugaredLogger.
func NewZapLogger(config ZapConfig) (Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var sink zapcore.WriteSyncer
	if config.FilePath != "" {
		maxSize := config.MaxSizeMB
		if maxSize == 0 {
			maxSize = 50
		}
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    maxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAgeDays,
		})
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		sink,
		zapLevel(config.Level),
	)
	sugar := zap.New(core).Sugar()

	return NewLogger("", LogFuncs{
		Debugf: sugar.Debugf,
		Infof:  sugar.Infof,
		Warnf:  sugar.Warnf,
		Errorf: sugar.Errorf,
	}), nil
}

func zapLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

package utility

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a LOGGING_LEVEL value to a zap level. Besides zap's own names it
// accepts WARNING and CRITICAL.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "", "INFO":
		return zapcore.InfoLevel, nil
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "WARN", "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	case "CRITICAL", "FATAL":
		return zapcore.FatalLevel, nil
	}

	return zapcore.InfoLevel, errors.Errorf("unknown logging level %q", level)
}

// NewLogger builds the JSON logger the functions write to. The Fn runtime collects
// stderr into the function's log.
// Reference: https://pkg.go.dev/go.uber.org/zap#example-package-AdvancedConfiguration
func NewLogger(level string, opts ...zap.Option) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(lvl))

	return zap.New(core, append([]zap.Option{zap.WithCaller(true)}, opts...)...), nil
}

// NopCoreLogger returns a logger option as no-op core logger.
func NopCoreLogger() []zap.Option {
	nopCore := zap.WrapCore(func(zapcore.Core) zapcore.Core {
		return zapcore.NewNopCore()
	})

	return []zap.Option{nopCore}
}

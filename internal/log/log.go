package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultLogger = zap.NewNop()

func Get() *zap.Logger {
	return defaultLogger
}

// Options select where log entries go. Verbose output is written to
// stderr in the console format, Path receives JSON entries when
// Enabled.
type Options struct {
	Enabled bool
	Path    string
	Verbose bool
}

// New builds a logger for opts. A no-op logger is returned when
// nothing is enabled.
func New(opts Options) (*zap.Logger, error) {
	if !opts.Enabled && !opts.Verbose {
		return zap.NewNop(), nil
	}

	var cfg zap.Config
	if opts.Verbose {
		cfg = zap.Config{
			Level:            zap.NewAtomicLevelAt(zap.DebugLevel),
			Development:      true,
			Encoding:         "console",
			EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
		}
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = nil
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	if opts.Enabled && opts.Path != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, opts.Path)
	}

	return cfg.Build()
}

// Set replaces the logger returned by Get.
func Set(opts Options) error {
	logger, err := New(opts)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

func Flush() {
	_ = defaultLogger.Sync()
}

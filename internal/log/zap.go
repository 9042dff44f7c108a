package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type options struct {
	logLevel   string
	encoding   string
	outputFile string
	maxSizeMB  int
	maxBackups int
}

type Option func(o *options)

func WithLogLevel(lv string) Option {
	return Option(func(o *options) {
		o.logLevel = lv
	})
}

// WithEncoding selects "json" or "console".
func WithEncoding(enc string) Option {
	return Option(func(o *options) {
		o.encoding = enc
	})
}

// WithOutputFile writes logs to a size-rotated file instead of stderr.
// Empty path keeps stderr.
func WithOutputFile(path string, maxSizeMB, maxBackups int) Option {
	return Option(func(o *options) {
		o.outputFile = path
		o.maxSizeMB = maxSizeMB
		o.maxBackups = maxBackups
	})
}

func NewLogger(opts ...Option) (*zap.Logger, error) {
	options := options{
		logLevel:   "info",
		encoding:   "json",
		maxSizeMB:  100,
		maxBackups: 3,
	}

	for _, e := range opts {
		e(&options)
	}

	encConfig := zap.NewProductionEncoderConfig()
	encConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var al zap.AtomicLevel
	err := al.UnmarshalText([]byte(options.logLevel))
	if err != nil {
		return nil, fmt.Errorf("al.UnmarshalText: level=%s, %w", options.logLevel, err)
	}

	var enc zapcore.Encoder
	switch options.encoding {
	case "json":
		enc = zapcore.NewJSONEncoder(encConfig)
	case "console":
		enc = zapcore.NewConsoleEncoder(encConfig)
	default:
		return nil, fmt.Errorf("unknown encoding: %s", options.encoding)
	}

	var ws zapcore.WriteSyncer
	if options.outputFile != "" {
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   options.outputFile,
			MaxSize:    options.maxSizeMB,
			MaxBackups: options.maxBackups,
			LocalTime:  true,
		})
	} else {
		ws = zapcore.Lock(os.Stderr)
	}

	// Caller and stacktrace stay off, same as the json-on-stderr default.
	return zap.New(zapcore.NewCore(enc, ws, al), zap.ErrorOutput(zapcore.Lock(os.Stderr))), nil
}

func Must(zl *zap.Logger, err error) *zap.Logger {
	if err != nil {
		panic(err)
	}
	return zl
}

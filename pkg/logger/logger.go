// Package logger builds the global zap logger
package logger

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

// Setup builds the logger, forwards warnings and errors to Sentry when a DSN
// is given and installs it as the global zap logger.
func Setup(level, sentryDSN string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level, %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger, %w", err)
	}

	if sentryDSN != "" {
		opt, err := Sentry(sentryDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise sentry, %w", err)
		}

		log = log.WithOptions(opt)
	}

	zap.ReplaceGlobals(log)
	return log, nil
}

// Sentry returns a zap option that reports warn, error and fatal entries
func Sentry(dsn string) (zap.Option, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn: dsn,
	})
	if err != nil {
		return nil, err
	}

	return zap.Hooks(func(entry zapcore.Entry) error {
		if entry.Level < zapcore.WarnLevel {
			return nil
		}

		sentry.CaptureEvent(&sentry.Event{
			Timestamp: entry.Time,
			Logger:    entry.LoggerName,
			Message:   entry.Message,
			Extra: map[string]any{
				"Stack":  entry.Stack,
				"Caller": entry.Caller.String(),
			},
			Level: SentryLevel(entry.Level),
		})

		return nil
	}), nil
}

func SentryLevel(l zapcore.Level) sentry.Level {
	switch l {
	case zapcore.ErrorLevel:
		return sentry.LevelError
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.FatalLevel, zapcore.PanicLevel, zapcore.DPanicLevel:
		return sentry.LevelFatal
	}

	return sentry.LevelInfo
}

// Flush waits for pending Sentry events. It is a no-op without a DSN.
func Flush() {
	sentry.Flush(5 * time.Second)
}

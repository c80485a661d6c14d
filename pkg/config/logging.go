package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a logrus logger from the logging settings. When Output is
// a file path the file is opened for appending; the returned closer closes it
// and is a no-op for stdout and stderr.
func (l LoggingConfig) NewLogger() (*logrus.Logger, io.Closer, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch strings.ToLower(l.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, nil, fmt.Errorf("invalid log format: %q (want text or json)", l.Format)
	}

	var closer io.Closer = nopCloser{}
	switch strings.ToLower(l.Output) {
	case "", "stderr":
		logger.SetOutput(os.Stderr)
	case "stdout":
		logger.SetOutput(os.Stdout)
	default:
		f, err := os.OpenFile(l.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		logger.SetOutput(f)
		closer = f
	}

	return logger, closer, nil
}

func parseLevel(s string) (logrus.Level, error) {
	if s == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return 0, fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

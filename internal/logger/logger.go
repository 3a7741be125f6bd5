// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a new configured logger instance
func NewLogger(logLevel string) *logrus.Logger {
	return NewLoggerWithOutput(logLevel, os.Stdout)
}

// NewLoggerWithOutput creates a logger writing to out.
func NewLoggerWithOutput(logLevel string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	// Parse and set log level
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Use JSON formatter for structured logging in production
	if os.Getenv("ENVIRONMENT") == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

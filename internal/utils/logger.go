package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the run logger. It is created once in main and passed to
// every component that logs.
func NewLogger(verbose, colored bool) *logrus.Logger {
	return NewLoggerTo(os.Stdout, verbose, colored)
}

func NewLoggerTo(w io.Writer, verbose, colored bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		ForceColors:      colored,
		DisableColors:    !colored,
		QuoteEmptyFields: true,
	})
	return logger
}

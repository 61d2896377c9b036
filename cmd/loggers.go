package cmd

import (
	"os"
	"strings"

	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// getLogger returns the logrus.Logger for use with packages that expect it
func getLogger() *logrus.Logger {
	return log
}

// configureLogger applies a level name and a format ("text" or "json").
func configureLogger(l *logrus.Logger, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Newf("invalid log format %q (want text or json)", format)
	}
	return nil
}

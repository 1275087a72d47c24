// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. An unknown level falls back to info;
// verbose forces debug regardless of level.
func NewLogger(level string, verbose bool) *logrus.Logger {
	return newLogger(os.Stderr, level, verbose)
}

func newLogger(w io.Writer, level string, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	logger.SetLevel(lvl)
	logger.AddHook(maskHook{})
	return logger
}

// maskHook scrubs secrets from the message and string fields before the
// entry is formatted.
type maskHook struct{}

func (maskHook) Levels() []logrus.Level { return logrus.AllLevels }

func (maskHook) Fire(e *logrus.Entry) error {
	e.Message = Mask(e.Message)
	for k, v := range e.Data {
		if s, ok := v.(string); ok {
			e.Data[k] = Mask(s)
		}
	}
	return nil
}

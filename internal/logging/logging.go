// Package logging constructs the single *logrus.Entry mcpcored wires into
// every subsystem (transport, dispatcher, rate limiter, gateway),
// continuing the teacher's practice of structured key-value lifecycle
// events under a shared entry, with level and output resolved from
// internal/config's ServerConfig instead of the teacher's
// map-based LogEntry/logLifecycle JSON logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the root *logrus.Entry for a mcpcored process. logFile may be
// empty, in which case logs go to stderr only.
func New(level, logFile string) (*logrus.Entry, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logger.SetLevel(parsed)

	out := io.Writer(os.Stderr)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file %q: %w", logFile, err)
		}
		out = io.MultiWriter(os.Stderr, f)
	}
	logger.SetOutput(out)

	return logrus.NewEntry(logger).WithField("component", "mcpcored"), nil
}

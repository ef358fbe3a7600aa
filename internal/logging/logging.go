// Package logging builds the structured logger shared by the server, the
// database layer and the CLI.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the given level. format is "text" or
// "json"; anything else falls back to text.
func New(w io.Writer, level, format string) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl := log.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}
	opts := log.Options{
		ReportTimestamp: true,
		Level:           lvl,
	}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		opts.Formatter = log.JSONFormatter
	}
	return log.NewWithOptions(w, opts), nil
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// CloseError logs an error from a deferred close if there was one.
func CloseError(logger *log.Logger, resource string, err error) {
	if err != nil && logger != nil {
		logger.Warn("failed to close resource", "resource", resource, "error", err)
	}
}

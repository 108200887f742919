// File: internal/logger/logger.go
package logger

import (
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/log"
)

// Creates the process logger and installs it as the slog default.
// Logs go to w (stderr in the CLI) so they never mix with command output.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: debug,
		TimeFunction:    log.NowUTC,
		ReportCaller:    debug,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

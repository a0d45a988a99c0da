package main

import (
	"io"

	"github.com/charmbracelet/log"
)

// newLogger creates the CLI logger. Verbose lowers the level to debug,
// quiet raises it to error; timestamps are formatted as "HH:MM:SS.ms".
func newLogger(w io.Writer, verbose, quiet bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	if quiet {
		level = log.ErrorLevel
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

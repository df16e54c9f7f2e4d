// Package logging builds the process logger.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to stderr at the named level ("debug",
// "info", "warn", "error"). Unknown levels fall back to info.
func New(level, prefix string) *log.Logger {
	return NewTo(os.Stderr, level, prefix)
}

// NewTo is New with an explicit writer.
func NewTo(w io.Writer, level, prefix string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           lvl,
	})
}

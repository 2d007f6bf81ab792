// Package logging holds the process-wide structured logger.
package logging

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultLogger is shared by every package; use WithPrefix for component loggers.
var DefaultLogger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "2006-01-02 15:04:05",
	Level:           log.InfoLevel,
})

// Init applies the configured level. Unknown levels fall back to info.
func Init(level string) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		DefaultLogger.Warnf("unknown log level %q, using info", level)
		lvl = log.InfoLevel
	}
	DefaultLogger.SetLevel(lvl)
	if lvl == log.DebugLevel {
		DefaultLogger.SetReportCaller(true)
	}
}

// WithPrefix returns a child logger tagged with a component name.
func WithPrefix(prefix string) *log.Logger {
	return DefaultLogger.WithPrefix(prefix)
}

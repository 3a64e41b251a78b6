// Package cli implements the schemahub command-line interface.
//
// The commands drive a registry run, inspect its durable outputs and help
// schema authors check a package before tagging it. The CLI is built using
// cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - run: Validate every registered package and publish the catalog
//   - validate: Check a local schema package directory
//   - catalog: List or show entries of the written catalog
//   - cache: Inspect or clear the notification dedup cache
//   - serve: Browse the catalog and published READMEs over HTTP
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Logs go to
// stderr; command output goes to stdout.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Run complete (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

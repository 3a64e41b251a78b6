package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("run started") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("tag resolved") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("tag resolved") }, true},
		{"warn at info level", log.InfoLevel, func(l *log.Logger) { l.Warn("skipping tag") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("Run complete")

	out := buf.String()
	if !strings.Contains(out, "Run complete (") || !strings.Contains(out, "s)") {
		t.Errorf("progress output = %q, want message with elapsed time", out)
	}
}

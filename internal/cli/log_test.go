package cli

import (
	"bytes"
	"context"
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
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("seeded") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("opening store") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("opening store") }, true},
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

func TestLogLevel(t *testing.T) {
	tests := []struct {
		verbose, quiet bool
		want           log.Level
	}{
		{false, false, log.InfoLevel},
		{true, false, log.DebugLevel},
		{false, true, log.WarnLevel},
		{true, true, log.WarnLevel},
	}
	for _, tt := range tests {
		if got := logLevel(tt.verbose, tt.quiet); got != tt.want {
			t.Errorf("logLevel(%v, %v) = %v, want %v", tt.verbose, tt.quiet, got, tt.want)
		}
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("seeded", "plan", "star")

	out := buf.String()
	for _, want := range []string{"seeded", "plan=star", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("progress.done() output = %q, missing %q", out, want)
		}
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext without a logger should return log.Default()")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	if loggerFromContext(withLogger(context.Background(), custom)) != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
}

package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/metacheck/pkg/pipeline"
	"github.com/matzehuels/metacheck/pkg/record"
	"github.com/matzehuels/metacheck/pkg/rules"
)

type failingRule struct{}

func (failingRule) Code() rules.Code { return "P001" }

func (failingRule) Detect(context.Context, record.Record, string) (rules.Result, error) {
	panic("index out of range")
}

func TestCLILogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("checking url", "url", "https://example.org")
	if buf.Len() != 0 {
		t.Fatalf("debug written at info level: %q", buf.String())
	}

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("checking url", "url", "https://example.org")
	if !strings.Contains(buf.String(), "checking url") {
		t.Errorf("debug missing at debug level: %q", buf.String())
	}
}

func TestLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, LogInfo).Info("findings saved", "bundles", 2)

	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(buf.String()) {
		t.Errorf("output %q does not start with a HH:MM:SS.ms timestamp", buf.String())
	}
}

func TestRunnerFaultsReachCLILogger(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	reg, err := rules.NewRegistry(failingRule{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	rec, err := record.Parse([]byte(`{"version": [{"result": {"value": "1.0"}}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out := pipeline.NewRunner(reg, c.Logger).Check(context.Background(), rec, "acme.json")
	if out.Faults != 1 {
		t.Errorf("Faults = %d, want 1", out.Faults)
	}
	for _, want := range []string{"rule failed", "P001", "acme.json"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log %q missing %q", buf.String(), want)
		}
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, LogInfo)).done("Analyzed 3 records")

	if !strings.Contains(buf.String(), "Analyzed 3 records (") {
		t.Errorf("output = %q, want message with elapsed time", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	custom := newLogger(&bytes.Buffer{}, LogDebug)
	tests := []struct {
		name string
		ctx  context.Context
		want *log.Logger
	}{
		{"attached", withLogger(context.Background(), custom), custom},
		{"missing", context.Background(), log.Default()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loggerFromContext(tt.ctx); got != tt.want {
				t.Errorf("loggerFromContext() = %p, want %p", got, tt.want)
			}
		})
	}
}

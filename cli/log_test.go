package cli

import (
	"os"
	"testing"

	"github.com/ardnew/htmpl/log"
)

func TestLogScan(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantLevel  logLevel
		wantFormat logFormat
		wantPretty bool
		wantCaller bool
	}{
		{
			name:       "separate values",
			args:       []string{"render", "--log-level", "debug", "--log-format", "text"},
			wantLevel:  "debug",
			wantFormat: "text",
			wantPretty: true,
		},
		{
			name:       "assigned values",
			args:       []string{"--log-level=warn", "--log-caller"},
			wantLevel:  "warn",
			wantPretty: true,
			wantCaller: true,
		},
		{
			name:      "negated booleans",
			args:      []string{"--no-log-pretty", "--log-caller=false", "--log-level=trace"},
			wantLevel: "trace",
		},
		{
			name:       "stops at terminator",
			args:       []string{"--", "--log-level=error"},
			wantPretty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(func() { log.Config(log.WithDefaults(os.Stderr)) })

			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", f.Level, tt.wantLevel)
			}

			if f.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", f.Format, tt.wantFormat)
			}

			if f.Pretty != tt.wantPretty {
				t.Errorf("Pretty = %v, want %v", f.Pretty, tt.wantPretty)
			}

			if f.Caller != tt.wantCaller {
				t.Errorf("Caller = %v, want %v", f.Caller, tt.wantCaller)
			}
		})
	}
}

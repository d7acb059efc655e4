package shared

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		name    string
		input   string
		want    log.Level
		wantErr bool
	}{
		{name: "debug", input: "debug", want: log.DebugLevel},
		{name: "upper case", input: "INFO", want: log.InfoLevel},
		{name: "warning alias", input: "warning", want: log.WarnLevel},
		{name: "critical alias", input: " critical ", want: log.FatalLevel},
		{name: "error", input: "error", want: log.ErrorLevel},
		{name: "unknown", input: "loud", want: log.WarnLevel, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoggers(t *testing.T) {
	t.Run("NewLogger writes at warn", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hidden")
		logger.Warn("shown", "artist", "Björk")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("info should be filtered at default level: %q", out)
		}
		if !strings.Contains(out, "shown") || !strings.Contains(out, "Björk") {
			t.Errorf("expected warning with key-value pair, got %q", out)
		}

		SetLogLevel(logger, log.DebugLevel)
		logger.Debug("now visible")
		if !strings.Contains(buf.String(), "now visible") {
			t.Error("debug message should be written after SetLogLevel")
		}
	})

	t.Run("NewFileLogger creates directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "discog.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		WithLogger(logger, "run", "test").Error("boom")
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if len(a) != 36 {
		t.Errorf("expected 36 character UUID, got %q", a)
	}
	if a == b {
		t.Error("expected unique IDs")
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := GenerateState()

	if len(a) != 32 {
		t.Errorf("expected 32 characters, got %d", len(a))
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("state should be URL safe, got %q", a)
	}
	if a == b {
		t.Error("expected unique states")
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"added": 3}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(compact) != `{"added":3}` {
		t.Errorf("unexpected compact output %s", compact)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(pretty), "\n  \"added\": 3") {
		t.Errorf("expected indented output, got %s", pretty)
	}
}

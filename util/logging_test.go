package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"TRACE":   zerolog.TraceLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"info":    zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, expected := range tests {
		if got := ParseLevel(in); got != expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", in, got, expected)
		}
	}
}

func TestLogInitTo(t *testing.T) {
	var buf bytes.Buffer
	LogInitTo(&buf, "warn")

	Logger.Info().Msg("hidden message")
	Logger.Warn().Msg("visible message")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "visible message") {
		t.Error("warn message should be written at warn level")
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	LogInitTo(&buf, "debug")

	l := Component("transport")
	l.Debug().Msg("dialing")

	if !strings.Contains(buf.String(), "transport") {
		t.Errorf("component logger output %q should carry the component name", buf.String())
	}
}

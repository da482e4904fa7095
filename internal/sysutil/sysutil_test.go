package sysutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetupLogger(t *testing.T) {
	origLogger, origLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() { log.Logger = origLogger; zerolog.SetGlobalLevel(origLevel) })

	var buf bytes.Buffer
	SetupLogger("warn", false, &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("room", "p1").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line below warn level: %s", out)
	}
	if !strings.Contains(out, `"room":"p1"`) || !strings.Contains(out, `"time":`) {
		t.Fatalf("expected JSON line with timestamp, got: %s", out)
	}

	buf.Reset()
	SetupLogger("debug", true, &buf)
	log.Debug().Msg("pretty")
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") || !strings.Contains(buf.String(), "pretty") {
		t.Fatalf("expected console output, got: %s", buf.String())
	}
}

func TestVersion(t *testing.T) {
	t.Setenv("APP_VERSION", "v1.4.0")
	if got := Version(); got != "v1.4.0" {
		t.Fatalf("Version() = %q", got)
	}
	t.Setenv("APP_VERSION", "")
	if got := Version(); got == "" {
		t.Fatalf("Version() must never be empty")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q; want \"\"", got)
	}
	if got := FirstNonEmpty(" ", "\t", "\n"); got != "" {
		t.Fatalf("FirstNonEmpty(empties) = %q; want \"\"", got)
	}
	// preserves original spacing
	if got := FirstNonEmpty("   ", "  hello  ", "world"); got != "  hello  " {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "  hello  ")
	}
	if got := FirstNonEmpty("alpha", "beta"); got != "alpha" {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "alpha")
	}
}

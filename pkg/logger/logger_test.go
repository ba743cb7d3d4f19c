package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"trace":   zerolog.TraceLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInit_JSONWithService(t *testing.T) {
	Reset()
	t.Cleanup(func() {
		Reset()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	var buf bytes.Buffer
	log := Init(Options{Level: "info", Service: "users-api", Output: &buf})
	log.Debug().Msg("hidden")
	log.Info().Str("k", "v").Msg("shown")

	var evt map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &evt); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if evt["service"] != "users-api" || evt["message"] != "shown" || evt["k"] != "v" {
		t.Fatalf("unexpected event: %v", evt)
	}

	again := Init(Options{Level: "debug", Output: &bytes.Buffer{}})
	again.Info().Msg("second")
	if !bytes.Contains(buf.Bytes(), []byte("second")) {
		t.Fatalf("second Init must return the first logger")
	}
}

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestLogger_IncludesServiceAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "farmd", "debug")
	log.Error().Err(errors.New("boom")).Msg("something failed")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json log: %v\n%s", err, buf.String())
	}
	if payload["service"] != "farmd" {
		t.Fatalf("expected service=farmd, got %v", payload["service"])
	}
	if payload["level"] != "error" {
		t.Fatalf("expected level=error, got %v", payload["level"])
	}
	if payload["error"] != "boom" {
		t.Fatalf("expected error=boom, got %v", payload["error"])
	}
	if _, ok := payload["time"]; !ok {
		t.Fatalf("expected time field: %s", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "farmd", "WARN")
	log.Info().Msg("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %s", buf.String())
	}
	log.Warn().Msg("loud")
	if buf.Len() == 0 {
		t.Fatal("warn should be written at warn level")
	}
}

func TestLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "farmd", "chatty")
	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered, got %s", buf.String())
	}
	log.Info().Msg("shown")
	if buf.Len() == 0 {
		t.Fatal("info should be written")
	}
}

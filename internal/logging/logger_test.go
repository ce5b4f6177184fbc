// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	goccyjson "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// swapLogger points the global logger at a buffer for the duration of
// a test and restores the previous logger afterwards.
func swapLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("no log output")
	}
	var m map[string]interface{}
	if err := goccyjson.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("log line is not JSON: %v: %q", err, line)
	}
	return m
}

func TestGlobalLoggerEmitsStructuredJSON(t *testing.T) {
	buf := swapLogger(t)

	Warn().Str("channel_id", "ch-1").Msg("playout apply failed")

	m := decodeLine(t, buf)
	if m["level"] != "warn" {
		t.Errorf("level = %v, want warn", m["level"])
	}
	if m["channel_id"] != "ch-1" {
		t.Errorf("channel_id = %v, want ch-1", m["channel_id"])
	}
	if m["message"] != "playout apply failed" {
		t.Errorf("message = %v", m["message"])
	}
	if _, ok := m["time"]; !ok {
		t.Error("missing timestamp field")
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWithComponentTagsEveryEvent(t *testing.T) {
	buf := swapLogger(t)

	logger := WithComponent("job-supervisor")
	logger.Info().Msg("started")

	m := decodeLine(t, buf)
	if m["component"] != "job-supervisor" {
		t.Errorf("component = %v, want job-supervisor", m["component"])
	}
}

func TestContextWithJobStampsJobIdentity(t *testing.T) {
	buf := swapLogger(t)

	ctx := ContextWithJob(context.Background(), "job-42", "generate")
	Ctx(ctx).Info().Int("iteration", 3).Msg("iteration complete")

	m := decodeLine(t, buf)
	if m["job_id"] != "job-42" {
		t.Errorf("job_id = %v, want job-42", m["job_id"])
	}
	if m["job_kind"] != "generate" {
		t.Errorf("job_kind = %v, want generate", m["job_kind"])
	}
}

func TestCtxFallsBackToGlobalLogger(t *testing.T) {
	buf := swapLogger(t)

	Ctx(context.Background()).Info().Msg("no job context")

	if m := decodeLine(t, buf); m["message"] != "no job context" {
		t.Errorf("message = %v", m["message"])
	}
}

func TestSlogBridgeRoutesThroughZerolog(t *testing.T) {
	buf := swapLogger(t)

	sl := NewSlogLogger().With("supervisor", "tvprogram-root")
	sl.Warn("service restarting", "service", "job-event-bus")

	m := decodeLine(t, buf)
	if m["level"] != "warn" {
		t.Errorf("level = %v, want warn", m["level"])
	}
	if m["supervisor"] != "tvprogram-root" {
		t.Errorf("supervisor attr = %v", m["supervisor"])
	}
	if m["service"] != "job-event-bus" {
		t.Errorf("service attr = %v", m["service"])
	}
}

func TestInitRespectsConsoleFormatAndOutput(t *testing.T) {
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "console", Output: &buf})
	Debug().Msg("console line")

	out := buf.String()
	if out == "" {
		t.Fatal("no output at debug level")
	}
	if strings.Contains(out, `"message"`) {
		t.Error("console format produced JSON output")
	}
	if !strings.Contains(out, "console line") {
		t.Errorf("output missing message: %q", out)
	}
}

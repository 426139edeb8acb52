// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"INFO", zerolog.InfoLevel},
		{"garbage", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Info().Str("component", "feed").Msg("ranking complete")

	out := buf.String()
	if !strings.Contains(out, `"component":"feed"`) {
		t.Errorf("expected component field in output, got %q", out)
	}
	if !strings.Contains(out, "ranking complete") {
		t.Errorf("expected message in output, got %q", out)
	}
}

func TestSetLoggerReplacesGlobal(t *testing.T) {
	orig := Logger()
	defer SetLogger(orig)

	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	Info().Msg("replaced")

	if !strings.Contains(buf.String(), "replaced") {
		t.Errorf("expected message via replaced global logger, got %q", buf.String())
	}
}

func TestSlogHandlerBridgesToZerolog(t *testing.T) {
	var buf bytes.Buffer
	orig := Logger()
	defer SetLogger(orig)
	SetLogger(NewTestLogger(&buf))

	slogger := slog.New(NewSlogHandler())
	slogger.Info("supervisor event", slog.String("service", "api"))

	out := buf.String()
	if !strings.Contains(out, "supervisor event") {
		t.Errorf("expected slog message in zerolog output, got %q", out)
	}
	if !strings.Contains(out, `"service":"api"`) {
		t.Errorf("expected slog attr in zerolog output, got %q", out)
	}
}

func TestSlogHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	orig := Logger()
	defer SetLogger(orig)
	SetLogger(NewTestLogger(&buf))

	slogger := slog.New(NewSlogHandler()).WithGroup("suture")
	slogger.Warn("restart", slog.Int64("attempt", 2))

	if !strings.Contains(buf.String(), `"suture.attempt":2`) {
		t.Errorf("expected grouped attr key, got %q", buf.String())
	}
}

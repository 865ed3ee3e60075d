// Feedweaver - Recommendation Retrieval and Content Mixing for News Portals
// Copyright 2026 Nabaa Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nabaa-media/feedweaver

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
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Info().Str("feed", "trending").Msg("test message")

	out := buf.String()
	if !strings.Contains(out, "test message") {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, `"feed":"trending"`) {
		t.Errorf("output missing structured field: %s", out)
	}
}

func TestInitReconfigures(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Debug().Msg("visible at debug")
	if !strings.Contains(buf.String(), "visible at debug") {
		t.Errorf("debug message not emitted after Init: %s", buf.String())
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	logger := slog.New(handler)

	t.Run("emits structured fields", func(t *testing.T) {
		buf.Reset()
		logger.Info("service started", "service", "refresh", "interval", 5)

		out := buf.String()
		if !strings.Contains(out, "service started") {
			t.Errorf("missing message: %s", out)
		}
		if !strings.Contains(out, `"service":"refresh"`) {
			t.Errorf("missing string attr: %s", out)
		}
	})

	t.Run("WithGroup prefixes keys", func(t *testing.T) {
		buf.Reset()
		logger.WithGroup("supervisor").Warn("restarting", "service", "http")

		out := buf.String()
		if !strings.Contains(out, `"supervisor.service":"http"`) {
			t.Errorf("group prefix missing: %s", out)
		}
	})

	t.Run("WithAttrs carries fields", func(t *testing.T) {
		buf.Reset()
		logger.With("tree", "feedweaver").Error("service failed")

		out := buf.String()
		if !strings.Contains(out, `"tree":"feedweaver"`) {
			t.Errorf("carried attr missing: %s", out)
		}
		if !strings.Contains(out, `"level":"error"`) {
			t.Errorf("level mapping wrong: %s", out)
		}
	})
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	ctx := New(context.Background(), custom)
	assert.Same(t, custom, Logger(ctx))

	ctx = New(context.Background(), nil)
	assert.Same(t, DefaultLogger, Logger(ctx), "nil logger should fall back to the default")
}

func TestLogger_NoValue(t *testing.T) {
	assert.Same(t, DefaultLogger, Logger(context.Background()))
}

func TestLoggingFunctions(t *testing.T) {
	prev := LevelVar.Level()
	defer LevelVar.Set(prev)

	LevelVar.Set(slog.LevelDebug)

	buf := &bytes.Buffer{}
	ctx := New(context.Background(), slog.New(NewPrettyHandler(&slog.HandlerOptions{Level: LevelVar},
		WithDestinationWriter(buf))))

	Debug(ctx, "debug message", "jobID", 1)
	Info(ctx, "info message")
	Warn(ctx, "warn message")
	Error(ctx, "error message")

	out := buf.String()
	assert.Contains(t, out, "DEBUG: debug message {\"jobID\":1}")
	assert.Contains(t, out, "INFO: info message")
	assert.Contains(t, out, "WARN: warn message")
	assert.Contains(t, out, "ERROR: error message")
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{in: "DEBUG", want: slog.LevelDebug, ok: true},
		{in: "info", want: slog.LevelInfo, ok: true},
		{in: " Warn ", want: slog.LevelWarn, ok: true},
		{in: "ERROR", want: slog.LevelError, ok: true},
		{in: "", want: slog.LevelWarn, ok: false},
		{in: "verbose", want: slog.LevelWarn, ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseLevel(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv(EnvName(), "DEBUG")
	assert.Equal(t, slog.LevelDebug, logLevelFromEnv())

	t.Setenv(EnvName(), "nonsense")
	assert.Equal(t, slog.LevelWarn, logLevelFromEnv())
}

func TestNewJSON(t *testing.T) {
	prev := LevelVar.Level()
	defer LevelVar.Set(prev)

	LevelVar.Set(slog.LevelInfo)

	buf := &bytes.Buffer{}
	NewJSON(buf).Info("batch launched", "jobs", 3)

	var rec map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "batch launched", rec["msg"])
	assert.InDelta(t, 3, rec["jobs"], 0)
}

func TestNewForTUI(t *testing.T) {
	prev := LevelVar.Level()
	defer LevelVar.Set(prev)

	LevelVar.Set(slog.LevelInfo)

	buf := &bytes.Buffer{}
	ctx := NewForTUI(context.Background(), buf)
	Info(ctx, "buffered")

	assert.Contains(t, buf.String(), "INFO: buffered")
	assert.NotContains(t, buf.String(), "\033[", "TUI logger must not emit colour codes")
}

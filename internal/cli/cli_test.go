package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/portflow/internal/app"
	"github.com/specialistvlad/portflow/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, exit, err := Parse([]string{"graph.json"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)

	want := &app.Config{
		GraphPath:   "graph.json",
		LogFormat:   "text",
		LogLevel:    "info",
		DBPath:      "portflow.db",
		RedactLimit: engine.DefaultRedactLimit,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_AllFlags(t *testing.T) {
	cfg, _, err := Parse([]string{
		"-g", "flows/",
		"-input", `{"a":1}`,
		"-env-file", ".env",
		"-log-format", "JSON",
		"-log-level", "Debug",
		"-serve", ":8080",
		"-db", "/tmp/runs.db",
		"-lenient",
		"-redact-limit", "0",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	want := &app.Config{
		GraphPath:     "flows/",
		InputJSON:     `{"a":1}`,
		EnvFile:       ".env",
		LogFormat:     "json",
		LogLevel:      "debug",
		ServeAddr:     ":8080",
		DBPath:        "/tmp/runs.db",
		LenientConfig: true,
		RedactLimit:   0,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_GraphFlagWinsOverArgument(t *testing.T) {
	cfg, _, err := Parse([]string{"-graph", "a.hcl", "b.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "a.hcl", cfg.GraphPath)
}

func TestParse_ShouldExit(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {}} {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse(args, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"-nope"}, "flag provided but not defined"},
		{"bad log format", []string{"-log-format", "xml", "g.json"}, "invalid log-format"},
		{"bad log level", []string{"-log-level", "trace", "g.json"}, "invalid log-level"},
		{"conflicting inputs", []string{"-input", "{}", "-input-file", "in.json", "g.json"}, "mutually exclusive"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"testing"
	"time"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `command: "python3 main.py"
working_directory: ./worker
count: 10
max_parallel: 4
timeout: 5m
poll_interval: 500ms
output_dir: out
report_format: yaml
isolate_workdirs: true
kill_on_cancel: true
metrics_file: out/fanout.prom
env:
  API_MODE: batch
`

const hclConfig = `command      = "python3 ${env.FANOUT_TEST_SCRIPT}"
count        = 3
timeout      = "90s"
no_shell     = true
env = {
  API_MODE = "batch"
}
`

func TestParse_YAML(t *testing.T) {
	c, err := Parse(Default(), "batch.yaml", []byte(yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, "python3 main.py", c.Command)
	assert.Equal(t, "./worker", c.WorkingDirectory)
	assert.Equal(t, 10, c.Count)
	assert.Equal(t, 4, c.MaxParallel)
	assert.Equal(t, 5*time.Minute, c.Timeout)
	assert.Equal(t, 500*time.Millisecond, c.PollInterval)
	assert.Equal(t, "out", c.OutputDir)
	assert.Equal(t, "yaml", c.ReportFormat)
	assert.True(t, c.IsolateWorkdirs)
	assert.True(t, c.KillOnCancel)
	assert.False(t, c.NoShell)
	assert.Equal(t, "out/fanout.prom", c.MetricsFile)
	assert.Equal(t, map[string]string{"API_MODE": "batch"}, c.Env)
	require.NoError(t, c.Validate())
}

func TestParse_YAMLUnknownKey(t *testing.T) {
	_, err := Parse(Default(), "batch.yml", []byte("command: x\ncuont: 3\n"))
	require.ErrorIs(t, err, ErrParseConfig)
}

func TestParse_HCL(t *testing.T) {
	t.Setenv("FANOUT_TEST_SCRIPT", "main.py")

	c, err := Parse(Default(), "batch.hcl", []byte(hclConfig))
	require.NoError(t, err)

	assert.Equal(t, "python3 main.py", c.Command)
	assert.Equal(t, 3, c.Count)
	assert.Equal(t, 90*time.Second, c.Timeout)
	assert.True(t, c.NoShell)
	assert.Equal(t, "batch", c.Env["API_MODE"])

	// Absent keys keep their defaults.
	assert.Equal(t, DefaultOutputDir, c.OutputDir)
	assert.Equal(t, DefaultPollInterval, c.PollInterval)
	assert.Equal(t, ".", c.WorkingDirectory)
}

func TestParse_HCLJSONSyntax(t *testing.T) {
	c, err := Parse(Default(), "batch.json", []byte(`{"command": "echo hi", "count": 2}`))
	require.NoError(t, err)
	assert.Equal(t, "echo hi", c.Command)
	assert.Equal(t, 2, c.Count)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		wantErr  error
	}{
		{name: "unsupported extension", filename: "batch.toml", data: "", wantErr: ErrUnsupportedFileType},
		{name: "bad yaml", filename: "batch.yaml", data: "command: [", wantErr: ErrParseConfig},
		{name: "bad hcl", filename: "batch.hcl", data: "command = ", wantErr: ErrParseConfig},
		{name: "bad duration", filename: "batch.yaml", data: "timeout: soon", wantErr: ErrParseConfig},
		{name: "unknown hcl attribute", filename: "batch.hcl", data: `nope = 1`, wantErr: ErrParseConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(Default(), tt.filename, []byte(tt.data))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_DoesNotModifyBase(t *testing.T) {
	base := Default()
	base.Env["KEEP"] = "1"

	c, err := Parse(base, "batch.yaml", []byte("env:\n  NEW: x\n"))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"KEEP": "1", "NEW": "x"}, c.Env)
	assert.Equal(t, map[string]string{"KEEP": "1"}, base.Env)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Command = "  "
	c.Count = 0
	c.MaxParallel = -1
	c.Timeout = -time.Second
	c.PollInterval = 0
	c.ReportFormat = "xml"
	c.NoShell = true
	c.Shell = "/bin/bash"
	c.OutputDir = ""
	c.Env["BAD=KEY"] = "x"

	err := c.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)

	for _, s := range []string{
		"command must not be empty",
		"count must be a positive integer",
		"max_parallel",
		"timeout must not be negative",
		"poll_interval must be positive",
		"report_format",
		"mutually exclusive",
		"output_dir",
		"BAD=KEY",
	} {
		assert.Contains(t, err.Error(), s)
	}
}

func TestLoad_LocalFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/batch.yaml", []byte(yamlConfig), 0o644))

	stubs := gostub.Stub(&FsFactory, func() afero.Fs {
		return fs
	})
	defer stubs.Reset()

	c, err := Load(context.Background(), "/cfg/batch.yaml")
	require.NoError(t, err)
	assert.Equal(t, 10, c.Count)
}

func TestLoad_GetterFallback(t *testing.T) {
	stubs := gostub.Stub(&FsFactory, func() afero.Fs {
		return afero.NewMemMapFs()
	})
	defer stubs.Reset()

	c, err := Load(context.Background(), "./testdata/batch.yaml")
	require.NoError(t, err)
	assert.Equal(t, "echo from testdata", c.Command)
	assert.Equal(t, 2, c.Count)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "empty url", url: ""},
		{name: "getter fails", url: "git::http://notexist//file.yaml"},
		{name: "missing local file", url: "./testdata/missing.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), tt.url)
			require.ErrorIs(t, err, ErrGetConfigFile)
		})
	}
}

func TestSplitFileNameFromGetterURL(t *testing.T) {
	tests := []struct {
		url      string
		wantURL  string
		wantFile string
	}{
		{
			url:      "git::https://github.com/org/repo//configs/batch.yaml?ref=v1",
			wantURL:  "git::https://github.com/org/repo//configs?ref=v1",
			wantFile: "batch.yaml",
		},
		{
			url:      "git::https://github.com/org/repo//batch.yaml",
			wantURL:  "git::https://github.com/org/repo",
			wantFile: "batch.yaml",
		},
		{url: "https://example.com/batch.yaml"},
		{url: "git::https://github.com/org/repo//configs/"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			gotURL, gotFile := splitFileNameFromGetterURL(tt.url)
			assert.Equal(t, tt.wantURL, gotURL)
			assert.Equal(t, tt.wantFile, gotFile)
		})
	}
}

func TestExample(t *testing.T) {
	t.Setenv("HOME", "/home/fanout")

	for _, format := range []string{"yaml", "hcl"} {
		t.Run(format, func(t *testing.T) {
			text, err := Example(format)
			require.NoError(t, err)

			c, err := Parse(Default(), "example."+format, []byte(text))
			require.NoError(t, err)
			require.NoError(t, c.Validate())
			assert.Equal(t, 10, c.Count)
		})
	}

	_, err := Example("toml")
	require.ErrorIs(t, err, ErrUnsupportedFileType)
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func run(args ...string) (string, error) {
	out := new(bytes.Buffer)
	cmd := newSchemaCmd()
	cmd.Writer = out
	cmd.ExitErrHandler = func(context.Context, *cli.Command, error) {}

	err := cmd.Run(context.Background(), append([]string{"schema"}, args...))

	return out.String(), err
}

func TestSchemaCmd_JSON(t *testing.T) {
	out, err := run()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)

	for _, key := range []string{
		"command", "working_directory", "count", "max_parallel", "timeout", "poll_interval",
		"output_dir", "report_format", "isolate_workdirs", "no_shell", "shell",
		"kill_on_cancel", "metrics_file", "env",
	} {
		assert.Contains(t, props, key)
	}

	assert.NotContains(t, doc, "required", "every key may come from flags instead")

	format, ok := props["report_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"json", "yaml"}, format["enum"])
}

func TestSchemaCmd_Markdown(t *testing.T) {
	out, err := run("--format", "markdown")
	require.NoError(t, err)

	assert.Contains(t, out, "# fanout configuration")
	assert.Contains(t, out, "- **command** (string, optional): Command line every job runs.")
}

func TestSchemaCmd_InvalidFormat(t *testing.T) {
	_, err := run("-f", "xml")
	require.Error(t, err)
}

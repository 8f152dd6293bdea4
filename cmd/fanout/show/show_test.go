// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package show

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/matt-FFFFFF/fanout/internal/batch"
	"github.com/matt-FFFFFF/fanout/internal/color"
	"github.com/matt-FFFFFF/fanout/internal/config"
	"github.com/matt-FFFFFF/fanout/internal/report"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// savedReport writes a two-job report into an in-memory file system that
// config.FsFactory returns for the rest of the test.
func savedReport(t *testing.T, format report.Format) string {
	t.Helper()

	fs := afero.NewMemMapFs()
	stubs := gostub.Stub(&config.FsFactory, func() afero.Fs { return fs })
	t.Cleanup(stubs.Reset)

	results := []*batch.Result{
		{ID: 1, ExitCode: 0, State: batch.StateSucceeded, StartTime: epoch, EndTime: epoch.Add(2 * time.Second), Output: []byte("ok\n")},
		{ID: 2, ExitCode: 3, State: batch.StateFailed, StartTime: epoch, EndTime: epoch.Add(time.Second), Err: batch.ErrJobRuntime},
	}

	art, err := report.NewWriter(fs, format).Write(context.Background(), results, batch.Summarize(results), "/results")
	require.NoError(t, err)

	return art.Report
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	cmd := newShowCmd()
	cmd.Writer = out
	cmd.ExitErrHandler = func(context.Context, *cli.Command, error) {}

	err := cmd.Run(context.Background(), append([]string{"show"}, args...))

	return out.String(), err
}

func TestShow_Table(t *testing.T) {
	for _, format := range []report.Format{report.FormatJSON, report.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			path := savedReport(t, format)

			out, err := run(t, path)
			require.NoError(t, err)

			assert.Contains(t, out, "STATUS")
			assert.Contains(t, out, "Jobs: 2")
			assert.Contains(t, out, "Succeeded: 1")
			assert.Contains(t, out, "Failed: 1")
		})
	}
}

func TestShow_JSON(t *testing.T) {
	defer color.SetEnabled(color.SetEnabled(false))

	path := savedReport(t, report.FormatYAML)

	out, err := run(t, "--json", path)
	require.NoError(t, err)

	var doc report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 2, doc.NumJobs)
	require.Len(t, doc.Jobs, 2)
	assert.Equal(t, "job_2.log", doc.Jobs[1].LogFile)
}

func TestShow_JSONColour(t *testing.T) {
	defer color.SetEnabled(color.SetEnabled(true))

	path := savedReport(t, report.FormatJSON)

	out, err := run(t, "--json", path)
	require.NoError(t, err)
	assert.Contains(t, out, "num_jobs")
	assert.Contains(t, out, "\033[")
}

func TestShow_Errors(t *testing.T) {
	stubs := gostub.Stub(&config.FsFactory, func() afero.Fs { return afero.NewMemMapFs() })
	defer stubs.Reset()

	_, err := run(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrNoFile.Error())

	_, err = run(t, "/missing/report.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrReadFile.Error())
}

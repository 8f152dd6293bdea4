// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show implements the show command, which prints a saved aggregate report.
package show

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/fanout/internal/color"
	"github.com/matt-FFFFFF/fanout/internal/config"
	"github.com/matt-FFFFFF/fanout/internal/report"
	"github.com/urfave/cli/v3"
)

const (
	fileArg  = "file"
	jsonFlag = "json"
	indent   = 2
)

var (
	// ErrNoFile is returned when no report path is given.
	ErrNoFile = errors.New("no report file given")
	// ErrReadFile is returned when the report cannot be read or decoded.
	ErrReadFile = errors.New("failed to read report")
	// ErrWriteResults is returned when the report cannot be written to stdout.
	ErrWriteResults = errors.New("failed to write report")
)

// ShowCmd is the command that shows a previously written aggregate report.
var ShowCmd = newShowCmd()

func newShowCmd() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Show a saved report",
		Description: "Show a report.json or report.yaml written by fanout run as a table, or as JSON with --json.",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: fileArg,
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  jsonFlag,
				Usage: "Print the report as JSON instead of a table",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	path := cmd.StringArg(fileArg)
	if path == "" {
		return cli.Exit(ErrNoFile.Error(), 1)
	}

	r, err := report.Load(config.FsFactory(), path)
	if err != nil {
		return cli.Exit(errors.Join(ErrReadFile, err).Error(), 1)
	}

	w := cmd.Writer
	if w == nil {
		w = os.Stdout
	}

	if cmd.Bool(jsonFlag) {
		err = writeJSON(w, r)
	} else {
		err = report.WriteTable(w, r)
	}

	if err != nil {
		return cli.Exit(errors.Join(ErrWriteResults, err).Error(), 1)
	}

	return nil
}

// writeJSON pretty-prints r, in colour when the console supports it.
func writeJSON(w io.Writer, r *report.Report) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if !color.Enabled() {
		var out []byte

		out, err = json.MarshalIndent(json.RawMessage(b), "", "  ")
		if err != nil {
			return err //nolint:wrapcheck
		}

		_, err = w.Write(append(out, '\n'))

		return err //nolint:wrapcheck
	}

	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		return err //nolint:wrapcheck
	}

	f := colorjson.NewFormatter()
	f.Indent = indent

	out, err := f.Marshal(obj)
	if err != nil {
		return err //nolint:wrapcheck
	}

	_, err = w.Write(append(out, '\n'))

	return err //nolint:wrapcheck
}

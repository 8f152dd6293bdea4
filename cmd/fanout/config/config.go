// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config implements the config command, which prints an example
// configuration file.
package config

import (
	"context"
	"fmt"
	"os"

	batchconfig "github.com/matt-FFFFFF/fanout/internal/config"
	"github.com/urfave/cli/v3"
)

const formatArg = "format"

// ConfigCmd prints an example configuration file.
var ConfigCmd = newConfigCmd()

func newConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print an example configuration file",
		Description: `Print an example configuration file in YAML (default) or HCL.
	Every key is optional and flags override the file.`,
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: formatArg,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	example, err := batchconfig.Example(cmd.StringArg(formatArg))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	w := cmd.Writer
	if w == nil {
		w = os.Stdout
	}

	if _, err := fmt.Fprint(w, example); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

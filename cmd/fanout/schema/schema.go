// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema provides the schema command, which documents the configuration file.
package schema

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/fanout/internal/config"
	"github.com/matt-FFFFFF/fanout/internal/schema"
	"github.com/urfave/cli/v3"
)

const (
	formatFlag = "format"
	title      = "fanout configuration"
	summary    = "Batch settings for fanout run. Every key is optional; flags and FANOUT_* variables override the file."
)

// SchemaCmd prints the configuration file schema.
var SchemaCmd = newSchemaCmd()

func newSchemaCmd() *cli.Command {
	return &cli.Command{
		Name:        "schema",
		Usage:       "Describe the configuration file",
		Description: "Print the configuration file keys as JSON Schema (for editor validation) or Markdown.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        formatFlag,
				Aliases:     []string{"f"},
				Usage:       "Output format: json or markdown",
				DefaultText: "json",
				Value:       "json",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	g := &schema.Generator{
		First: []string{"command", "count", "working_directory"},
		Last:  []string{"env"},
	}

	s, err := g.Generate(title, summary, config.Document())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	w := cmd.Writer
	if w == nil {
		w = os.Stdout
	}

	switch format := cmd.String(formatFlag); format {
	case "json":
		err = s.WriteJSONSchema(w)
	case "markdown", "md":
		err = s.WriteMarkdownDoc(w)
	default:
		return cli.Exit(fmt.Sprintf("invalid format: %s. Valid formats: json, markdown", format), 1)
	}

	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the fanout command-line interface (CLI).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/fanout"
	"github.com/matt-FFFFFF/fanout/cmd/fanout/config"
	"github.com/matt-FFFFFF/fanout/cmd/fanout/run"
	"github.com/matt-FFFFFF/fanout/cmd/fanout/schema"
	"github.com/matt-FFFFFF/fanout/cmd/fanout/show"
	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/matt-FFFFFF/fanout/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

const (
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
)

// ErrLogFormat is returned for a --log-format other than pretty or json.
var ErrLogFormat = errors.New("log format must be pretty or json")

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		config.ConfigCmd,
		run.RunCmd,
		schema.SchemaCmd,
		show.ShowCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "fanout",
	Description: `fanout runs one shell command as many independent, concurrent jobs,
waits for all of them, and writes a per-job log plus an aggregate report with
success counts and timing statistics.`,
	Usage:     "fanout run -c 'python3 main.py' -n 10",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  logLevelFlag,
			Usage: "Set the log level: debug, info, warn or error. Overrides " + ctxlog.EnvName() + ".",
		},
		&cli.StringFlag{
			Name:  logFormatFlag,
			Usage: "Set the log format: pretty or json.",
			Value: "pretty",
		},
	},
	Before:                configureLogging,
	ExitErrHandler:        func(context.Context, *cli.Command, error) {},
	EnableShellCompletion: true,
}

// configureLogging applies the global logging flags to the context logger.
func configureLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if s := cmd.String(logLevelFlag); s != "" {
		lvl, ok := ctxlog.ParseLevel(s)
		if !ok {
			return ctx, cli.Exit(fmt.Sprintf("unknown log level %q", s), 1)
		}

		ctxlog.LevelVar.Set(lvl)
	}

	switch cmd.String(logFormatFlag) {
	case "", "pretty":
		return ctx, nil
	case "json":
		return ctxlog.New(ctx, ctxlog.NewJSON(cmd.ErrWriter)), nil
	default:
		return ctx, cli.Exit(ErrLogFormat.Error(), 1)
	}
}

func main() {
	ctx, cancel := context.WithCancelCause(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel(nil)

	sigCh := signalbroker.New(ctx)
	defer signalbroker.Stop(sigCh)

	go signalbroker.Watch(ctx, sigCh, cancel, nil)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", fanout.Version, fanout.Commit)

	err := rootCmd.Run(ctx, os.Args)

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", context.Cause(ctx))
		os.Exit(1)
	}

	if err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := exitErr.Error(); msg != "" {
				ctxlog.Logger(ctx).Error("command failed", "error", msg)
			}

			os.Exit(max(exitErr.ExitCode(), 1))
		}

		ctxlog.Logger(ctx).Error("command failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Logger(ctx).Info("command completed successfully")
}

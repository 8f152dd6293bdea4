// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run command: launch a batch, follow its progress,
// collect the results and write the report.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/matt-FFFFFF/fanout/internal/batch"
	"github.com/matt-FFFFFF/fanout/internal/config"
	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/matt-FFFFFF/fanout/internal/metrics"
	"github.com/matt-FFFFFF/fanout/internal/progress"
	"github.com/matt-FFFFFF/fanout/internal/report"
	"github.com/matt-FFFFFF/fanout/internal/tui"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

const (
	configFlag        = "config"
	commandFlag       = "command"
	cwdFlag           = "cwd"
	countFlag         = "count"
	outFlag           = "out"
	maxParallelFlag   = "max-parallel"
	timeoutFlag       = "timeout"
	pollIntervalFlag  = "poll-interval"
	envFlag           = "env"
	shellFlag         = "shell"
	noShellFlag       = "no-shell"
	isolateFlag       = "isolate"
	killOnCancelFlag  = "kill-on-cancel"
	reportFormatFlag  = "report-format"
	metricsFileFlag   = "metrics-file"
	tuiFlag           = "tui"
	quietFlag         = "quiet"
	configTimeoutFlag = "config-timeout"

	envPrefix            = "FANOUT_"
	configTimeoutDefault = 30 * time.Second
	spinnerInterval      = 100 * time.Millisecond
	spinnerCharSet       = 14
	eventBufferPerJob    = 4
)

// ErrNoCommand is returned when neither --command nor trailing arguments give a command.
var ErrNoCommand = errors.New("no command given: use --command, a config file, or pass it after --")

// RunCmd is the command that runs a batch.
var RunCmd = newRunCmd()

func envVars(flag string) cli.ValueSourceChain {
	return cli.EnvVars(envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_")))
}

func newRunCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a command as a batch of concurrent jobs",
		Description: `Run the same command COUNT times at once, each job in its own process,
wait for all of them and write job_<id>.log files plus an aggregate report to the
output directory.

Settings come from flags, FANOUT_* environment variables, an optional config file
(YAML or HCL, fetched with Hashicorp's go-getter, see https://github.com/hashicorp/go-getter)
and defaults, in that order of precedence.

The command can also be given after --, e.g. fanout run -n 4 -- python3 main.py.

The first interrupt is only reported and the jobs keep running. A second one stops
waiting: unfinished jobs are reported as abandoned, and killed with --kill-on-cancel.
`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      configFlag,
				Aliases:   []string{"f"},
				Usage:     "Read settings from a YAML or HCL file. Supports go-getter URLs.",
				TakesFile: true,
				Sources:   envVars(configFlag),
			},
			&cli.StringFlag{
				Name:    commandFlag,
				Aliases: []string{"c"},
				Usage:   "The command line every job runs.",
				Sources: envVars(commandFlag),
			},
			&cli.StringFlag{
				Name:      cwdFlag,
				Aliases:   []string{"C"},
				Usage:     "Working directory of the jobs. Defaults to the current directory.",
				TakesFile: true,
				Sources:   envVars(cwdFlag),
			},
			&cli.IntFlag{
				Name:    countFlag,
				Aliases: []string{"n"},
				Usage:   "Number of jobs to run.",
				Sources: envVars(countFlag),
			},
			&cli.StringFlag{
				Name:      outFlag,
				Aliases:   []string{"o"},
				Usage:     "Directory for job logs and the report. Defaults to " + config.DefaultOutputDir + ".",
				TakesFile: true,
				Sources:   envVars(outFlag),
			},
			&cli.IntFlag{
				Name:    maxParallelFlag,
				Aliases: []string{"p"},
				Usage:   "Maximum number of jobs running at once. 0 means no limit.",
				Sources: envVars(maxParallelFlag),
			},
			&cli.DurationFlag{
				Name:    timeoutFlag,
				Usage:   "Kill a job that runs longer than this. 0 means no limit.",
				Sources: envVars(timeoutFlag),
			},
			&cli.DurationFlag{
				Name:    pollIntervalFlag,
				Usage:   "How often progress is reported.",
				Value:   config.DefaultPollInterval,
				Sources: envVars(pollIntervalFlag),
			},
			&cli.StringMapFlag{
				Name:    envFlag,
				Aliases: []string{"e"},
				Usage:   "Extra environment for every job, as KEY=VALUE. Repeatable.",
			},
			&cli.StringFlag{
				Name:    shellFlag,
				Usage:   "Shell used to run the command.",
				Sources: envVars(shellFlag),
			},
			&cli.BoolFlag{
				Name:    noShellFlag,
				Usage:   "Split the command on whitespace and run it without a shell.",
				Sources: envVars(noShellFlag),
			},
			&cli.BoolFlag{
				Name:    isolateFlag,
				Usage:   "Run each job in its own job_<id> subdirectory of the working directory.",
				Sources: envVars(isolateFlag),
			},
			&cli.BoolFlag{
				Name:    killOnCancelFlag,
				Usage:   "Kill running jobs when the batch is cancelled instead of leaving them running.",
				Sources: envVars(killOnCancelFlag),
			},
			&cli.StringFlag{
				Name:    reportFormatFlag,
				Usage:   "Aggregate report format: json or yaml.",
				Value:   config.DefaultReportFormat,
				Sources: envVars(reportFormatFlag),
			},
			&cli.StringFlag{
				Name:      metricsFileFlag,
				Usage:     "Also write Prometheus textfile metrics to this path.",
				TakesFile: true,
				Sources:   envVars(metricsFileFlag),
			},
			&cli.BoolFlag{
				Name:    tuiFlag,
				Aliases: []string{"t", "interactive"},
				Usage:   "Show an interactive dashboard while the jobs run.",
				Sources: envVars(tuiFlag),
			},
			&cli.BoolFlag{
				Name:    quietFlag,
				Aliases: []string{"q"},
				Usage:   "Print neither progress nor the summary table.",
				Sources: envVars(quietFlag),
			},
			&cli.DurationFlag{
				Name:  configTimeoutFlag,
				Usage: "Maximum time to fetch the config file.",
				Value: configTimeoutDefault,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("running run command")

	out, errOut := writers(cmd)

	cfg, err := buildConfig(ctx, cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	format, err := report.ParseFormat(cfg.ReportFormat)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	opts := batch.Options{
		MaxParallel:     cfg.MaxParallel,
		Timeout:         cfg.Timeout,
		KillOnCancel:    cfg.KillOnCancel,
		Shell:           cfg.Shell,
		NoShell:         cfg.NoShell,
		IsolateWorkdirs: cfg.IsolateWorkdirs,
		Env:             cfg.Env,
	}

	var summary *batch.Summary

	var execErr error

	switch cmd.Bool(tuiFlag) {
	case true:
		logger.Info("starting interactive TUI mode")

		buf := new(bytes.Buffer)
		tuiCtx := ctxlog.NewForTUI(ctx, buf)

		runner := tui.NewRunner(tuiCtx, cfg.Count)
		opts.Reporter = runner.Reporter()

		summary, execErr = runner.Run(tuiCtx, func(ctx context.Context) (*batch.Summary, error) {
			return execute(ctx, cfg, opts, runner.Reporter().Snapshot)
		})

		buf.WriteTo(errOut) //nolint:errcheck
	default:
		reporter := progress.NewChannelReporter(ctx, cfg.Count*eventBufferPerJob)
		reporter.Listen(progress.ListenerFunc(func(ev progress.Event) {
			logger.Debug("job "+ev.Type.String(), "jobID", ev.JobID, "message", ev.Message)
		}))

		opts.Reporter = reporter

		onSnapshot, stop := progressPrinter(errOut, cmd.Bool(quietFlag))
		summary, execErr = execute(ctx, cfg, opts, onSnapshot)

		stop()
		reporter.Close()
	}

	if summary == nil {
		return cli.Exit(execErr.Error(), 1)
	}

	if execErr != nil {
		logger.Warn("batch incomplete, writing partial report", "error", execErr)
	}

	writer := report.NewWriter(config.FsFactory(), format)

	art, err := writer.Write(ctx, summary.Results, summary, cfg.OutputDir)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if art.LogErrors != nil {
		logger.Warn("some job logs could not be written", "error", art.LogErrors.Error())
	}

	if cfg.MetricsFile != "" {
		writeMetrics(ctx, cfg.MetricsFile, summary)
	}

	if !cmd.Bool(quietFlag) {
		if err := report.WriteTable(out, art.Document); err != nil {
			logger.Error("could not print summary table", "error", err)
		}

		fmt.Fprintf(out, "Report: %s\n", art.Report) //nolint:errcheck
	}

	if execErr != nil {
		return cli.Exit(execErr.Error(), 1)
	}

	return nil
}

// buildConfig layers defaults, the config file, then flags and environment.
func buildConfig(ctx context.Context, cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()

	if src := cmd.String(configFlag); src != "" {
		loadCtx, cancel := context.WithTimeout(ctx, cmd.Duration(configTimeoutFlag))
		defer cancel()

		loaded, err := config.Load(loadCtx, src)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		cfg = loaded
	}

	applyFlags(cmd, cfg)

	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.Join(config.ErrInvalidConfig, ErrNoCommand)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return cfg, nil
}

// applyFlags overrides cfg with every flag that was set on the command line or
// through its environment variable.
func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet(commandFlag) {
		cfg.Command = cmd.String(commandFlag)
	} else if args := cmd.Args().Slice(); len(args) > 0 {
		cfg.Command = strings.Join(args, " ")
	}

	if cmd.IsSet(cwdFlag) {
		cfg.WorkingDirectory = cmd.String(cwdFlag)
	}

	if cmd.IsSet(countFlag) {
		cfg.Count = cmd.Int(countFlag)
	}

	if cmd.IsSet(outFlag) {
		cfg.OutputDir = cmd.String(outFlag)
	}

	if cmd.IsSet(maxParallelFlag) {
		cfg.MaxParallel = cmd.Int(maxParallelFlag)
	}

	if cmd.IsSet(timeoutFlag) {
		cfg.Timeout = cmd.Duration(timeoutFlag)
	}

	if cmd.IsSet(pollIntervalFlag) {
		cfg.PollInterval = cmd.Duration(pollIntervalFlag)
	}

	if cmd.IsSet(envFlag) {
		maps.Copy(cfg.Env, cmd.StringMap(envFlag))
	}

	if cmd.IsSet(shellFlag) {
		cfg.Shell = cmd.String(shellFlag)
	}

	if cmd.IsSet(noShellFlag) {
		cfg.NoShell = cmd.Bool(noShellFlag)
	}

	if cmd.IsSet(isolateFlag) {
		cfg.IsolateWorkdirs = cmd.Bool(isolateFlag)
	}

	if cmd.IsSet(killOnCancelFlag) {
		cfg.KillOnCancel = cmd.Bool(killOnCancelFlag)
	}

	if cmd.IsSet(reportFormatFlag) {
		cfg.ReportFormat = cmd.String(reportFormatFlag)
	}

	if cmd.IsSet(metricsFileFlag) {
		cfg.MetricsFile = cmd.String(metricsFileFlag)
	}
}

// execute launches the batch, forwards monitor snapshots to onSnapshot and
// collects every job. The summary is nil only when nothing was launched; a
// non-nil error alongside a summary means collection stopped early.
func execute(ctx context.Context, cfg *config.Config, opts batch.Options, onSnapshot func(batch.Snapshot)) (*batch.Summary, error) {
	launcher := batch.NewLauncher(opts)

	handles, err := launcher.LaunchBatch(ctx, cfg.Command, cfg.WorkingDirectory, cfg.Count)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for s := range batch.Watch(watchCtx, handles, cfg.PollInterval) {
			onSnapshot(s)
		}
	}()

	results, err := batch.Collect(ctx, handles)

	// After a full collection the watcher delivers the final snapshot and closes
	// by itself. Abandoned jobs never get there.
	if err != nil {
		stopWatch()
	}

	wg.Wait()

	if results == nil {
		return nil, err //nolint:wrapcheck
	}

	return batch.Summarize(results), err
}

// progressPrinter returns the snapshot callback for the plain console mode and a
// function that finishes the progress output. On a terminal the line is animated
// with a spinner, otherwise each snapshot is printed on its own line.
func progressPrinter(w io.Writer, quiet bool) (func(batch.Snapshot), func()) {
	if quiet {
		return func(batch.Snapshot) {}, func() {}
	}

	f, ok := terminal(w)
	if !ok {
		return func(s batch.Snapshot) {
			fmt.Fprintln(w, report.ProgressLine(s)) //nolint:errcheck
		}, func() {}
	}

	var (
		mu   sync.Mutex
		last string
	)

	s := spinner.New(spinner.CharSets[spinnerCharSet], spinnerInterval, spinner.WithWriterFile(f))
	s.Start()

	update := func(snap batch.Snapshot) {
		line := report.ProgressLine(snap)

		mu.Lock()
		last = line
		mu.Unlock()

		s.Lock()
		s.Suffix = " " + line
		s.Unlock()
	}

	stop := func() {
		s.Stop()

		mu.Lock()
		defer mu.Unlock()

		if last != "" {
			fmt.Fprintln(w, last) //nolint:errcheck
		}
	}

	return update, stop
}

// writers returns the command's output and error writers, falling back to the
// root command's.
func writers(cmd *cli.Command) (io.Writer, io.Writer) {
	out, errOut := cmd.Writer, cmd.ErrWriter

	if root := cmd.Root(); root != nil {
		if out == nil {
			out = root.Writer
		}

		if errOut == nil {
			errOut = root.ErrWriter
		}
	}

	if out == nil {
		out = os.Stdout
	}

	if errOut == nil {
		errOut = os.Stderr
	}

	return out, errOut
}

func terminal(w io.Writer) (*os.File, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, false
	}

	return f, true
}

// writeMetrics writes the Prometheus textfile. Failures are only logged.
func writeMetrics(ctx context.Context, path string, summary *batch.Summary) {
	// The textfile is written to the OS file system, not through FsFactory.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:mnd
		ctxlog.Warn(ctx, "could not create metrics directory", "path", path, "error", err)
		return
	}

	rec := metrics.NewRecorder()
	rec.Observe(summary)

	if err := rec.WriteTextfile(ctx, path); err != nil {
		ctxlog.Warn(ctx, "could not write metrics", "path", path, "error", err)
	}
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/matt-FFFFFF/fanout/internal/progress"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxOutputBytes is the default capture limit per job.
const DefaultMaxOutputBytes int64 = 8 * 1024 * 1024

// Options tune how jobs are launched. The zero value matches the behaviour of a
// plain fire-and-forget launch: no concurrency cap, no timeout, and jobs are
// abandoned rather than killed when the batch is cancelled.
type Options struct {
	MaxParallel     int               // Maximum concurrently running jobs, 0 for no limit
	Timeout         time.Duration     // Per-job deadline, 0 for none
	KillOnCancel    bool              // Kill running jobs when the launch context is cancelled
	Shell           string            // Shell used to run the command, DefaultShell if empty
	NoShell         bool              // Split the command on whitespace and exec it directly
	IsolateWorkdirs bool              // Run each job in <cwd>/job_<id>
	Env             map[string]string // Extra environment for every job
	MaxOutputBytes  int64             // Capture limit per job, DefaultMaxOutputBytes if 0
	Reporter        progress.Reporter // Receives job lifecycle events, may be nil
}

// Launcher starts batches of jobs.
type Launcher struct {
	opts Options
	sem  *semaphore.Weighted
}

// NewLauncher creates a Launcher. Options are copied.
func NewLauncher(opts Options) *Launcher {
	if opts.MaxOutputBytes == 0 {
		opts.MaxOutputBytes = DefaultMaxOutputBytes
	}

	if opts.Reporter == nil {
		opts.Reporter = progress.NewNullReporter()
	}

	l := &Launcher{opts: opts}
	if opts.MaxParallel > 0 {
		l.sem = semaphore.NewWeighted(int64(opts.MaxParallel))
	}

	return l
}

// Options returns the effective options.
func (l *Launcher) Options() Options {
	return l.opts
}

// LaunchBatch starts count jobs running command in cwd and returns their handles
// ordered by id. It returns without waiting for any job; a job that fails to
// start is reported through its handle and does not affect the others.
//
// ctx bounds waiting for a concurrency slot and, with KillOnCancel, the jobs themselves.
func (l *Launcher) LaunchBatch(ctx context.Context, command, cwd string, count int) ([]*Handle, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: job count must be positive, got %d", ErrInvalidBatch, count)
	}

	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("%w: command is empty", ErrInvalidBatch)
	}

	if cwd != "" {
		abs, err := filepath.Abs(cwd)
		if err != nil {
			return nil, fmt.Errorf("%w: working directory %q: %w", ErrInvalidBatch, cwd, err)
		}

		cwd = abs
	}

	logger := ctxlog.Logger(ctx).With("component", "launcher")
	logger.Info("launching batch",
		"command", command,
		"cwd", cwd,
		"count", count,
		"maxParallel", l.opts.MaxParallel,
		"timeout", l.opts.Timeout,
	)

	handles := make([]*Handle, count)

	for i := range handles {
		id := i + 1
		h := newHandle(newJobSpec(id, count, command, cwd, l.opts.IsolateWorkdirs, l.opts.Env))
		handles[i] = h

		l.opts.Reporter.Report(progress.Event{
			JobID:     id,
			Type:      progress.EventQueued,
			Message:   "queued",
			Timestamp: time.Now(),
		})

		go l.run(ctx, h)
	}

	return handles, nil
}

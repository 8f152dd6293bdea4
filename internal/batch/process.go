// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/matt-FFFFFF/fanout/internal/progress"
	"github.com/matt-FFFFFF/fanout/internal/teereader"
)

// drainTimeout is how long output is still read after the process exits.
// Grandchildren that inherited the pipe can keep it open indefinitely.
const drainTimeout = 5 * time.Second

var (
	// ErrFailedToCreatePipe is recorded when the output pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrCouldNotStartProcess is recorded when the operating system refused to start the process.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToReadOutput is recorded when reading the output pipe failed.
	ErrFailedToReadOutput = errors.New("failed to read output")
)

// run drives one job from Pending to a terminal state. It always calls h.finish.
func (l *Launcher) run(ctx context.Context, h *Handle) {
	logger := ctxlog.Logger(ctx).With("component", "launcher").With("jobID", h.ID())

	if l.sem != nil {
		logger.Debug("waiting for slot")

		if err := l.sem.Acquire(ctx, 1); err != nil {
			l.complete(logger, h, launchFailure(h.ID(), err))
			return
		}

		defer l.sem.Release(1)
	}

	l.complete(logger, h, l.exec(ctx, logger, h))
}

// complete publishes the terminal result of the job.
func (l *Launcher) complete(logger *slog.Logger, h *Handle, r *Result) {
	ev := progress.Event{
		JobID:     r.ID,
		Type:      progress.EventCompleted,
		Message:   "succeeded",
		Timestamp: time.Now(),
		Data: progress.EventData{
			ExitCode: r.ExitCode,
			Error:    r.Err,
		},
	}

	if d, ok := r.Duration(); ok {
		ev.Data.Duration = d
	}

	if r.State == StateFailed {
		ev.Type = progress.EventFailed
		ev.Message = "failed"

		logger.Info("job failed", "exitCode", r.ExitCode, "error", r.Err)
	} else {
		logger.Debug("job succeeded")
	}

	h.finish(r)
	l.opts.Reporter.Report(ev)
}

// exec starts the process, captures its output and waits for it.
func (l *Launcher) exec(ctx context.Context, logger *slog.Logger, h *Handle) *Result {
	spec := h.Spec()

	args, err := argv(ctx, spec.Command, l.opts.Shell, l.opts.NoShell)
	if err != nil {
		return launchFailure(spec.ID, err)
	}

	if l.opts.IsolateWorkdirs {
		if err := os.MkdirAll(spec.Cwd, 0o755); err != nil {
			return launchFailure(spec.ID, err)
		}
	}

	logger.Debug("command info", "path", args[0], "args", args[1:], "cwd", spec.Cwd)

	stdin, err := os.Open(os.DevNull)
	if err != nil {
		return launchFailure(spec.ID, errors.Join(ErrCouldNotStartProcess, err))
	}
	defer stdin.Close() //nolint:errcheck

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return launchFailure(spec.ID, errors.Join(ErrFailedToCreatePipe, err))
	}

	ps, err := os.StartProcess(args[0], args, &os.ProcAttr{
		Dir:   spec.Cwd,
		Env:   spec.Environ(os.Environ()),
		Files: []*os.File{stdin, wOut, wOut},
	})
	start := time.Now()

	// The child holds its own copy; ours must go or the reader never sees EOF.
	_ = wOut.Close()

	if err != nil {
		_ = rOut.Close()
		return launchFailure(spec.ID, errors.Join(ErrCouldNotStartProcess, err))
	}

	logger.Debug("process started", "pid", ps.Pid)

	tee := teereader.NewLastLineTeeReader(rOut, l.opts.MaxOutputBytes)
	h.markRunning(start, ps.Pid, tee)

	l.opts.Reporter.Report(progress.Event{
		JobID:     spec.ID,
		Type:      progress.EventStarted,
		Message:   "started",
		Timestamp: start,
		Data:      progress.EventData{Pid: ps.Pid},
	})

	readDone := make(chan error, 1)

	go func() {
		_, err := io.Copy(io.Discard, tee)
		readDone <- err
	}()

	done := make(chan struct{})
	killed := make(chan error, 1)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		l.watchdog(ctx, logger, ps, done, killed)
	}()

	state, waitErr := ps.Wait()
	end := time.Now()

	close(done)
	wg.Wait()

	var readErr error

	select {
	case readErr = <-readDone:
	case <-time.After(drainTimeout):
		logger.Warn("output pipe still open after process exit, closing it", "pid", ps.Pid)
		_ = rOut.Close()
		readErr = <-readDone

		if errors.Is(readErr, os.ErrClosed) {
			readErr = nil
		}
	}

	_ = rOut.Close()

	var killErr error

	select {
	case killErr = <-killed:
	default:
	}

	r := &Result{
		ID:        spec.ID,
		ExitCode:  ExitCodeUnknown,
		StartTime: start,
		EndTime:   end,
		State:     StateFailed,
	}

	if state != nil {
		r.ExitCode = state.ExitCode()
	}

	switch {
	case killErr != nil:
		r.ExitCode = ExitCodeUnknown
		r.Err = errors.Join(ErrJobRuntime, killErr)
	case waitErr != nil:
		r.ExitCode = ExitCodeUnknown
		r.Err = errors.Join(ErrJobRuntime, waitErr)
	case r.ExitCode == ExitCodeUnknown && tee.Total() == 0:
		// Terminated by a signal we did not send before saying anything.
		logger.Debug("process crashed before producing output", "state", state.String())
		return launchFailure(spec.ID, errors.Join(ErrCrashedBeforeOutput, errors.New(state.String())))
	case r.ExitCode == ExitCodeUnknown:
		r.Err = errors.Join(ErrJobRuntime, fmt.Errorf("process %s", state.String()))
	case r.ExitCode != 0:
		r.Err = errors.Join(ErrJobRuntime, fmt.Errorf("exit status %d", r.ExitCode))
	default:
		r.State = StateSucceeded
	}

	if readErr != nil {
		r.Err = errors.Join(r.Err, ErrJobRuntime, ErrFailedToReadOutput, readErr)
		r.State = StateFailed

		if r.ExitCode == 0 {
			r.ExitCode = ExitCodeUnknown
		}
	}

	if tee.Truncated() {
		logger.Debug("output overflow", "bytesRead", tee.Total(), "maxBytes", l.opts.MaxOutputBytes)

		r.Err = errors.Join(r.Err, ErrJobRuntime, ErrOutputOverflow)
		r.State = StateFailed

		if r.ExitCode == 0 {
			r.ExitCode = ExitCodeUnknown
		}
	}

	r.Output = tee.Release()

	logger.Debug("process finished", "exitCode", r.ExitCode, "bytes", len(r.Output))

	return r
}

// watchdog kills the process on timeout or, with KillOnCancel, when ctx is
// cancelled. The reason is sent on killed.
func (l *Launcher) watchdog(ctx context.Context, logger *slog.Logger, ps *os.Process, done <-chan struct{}, killed chan<- error) {
	var timeout <-chan time.Time

	if l.opts.Timeout > 0 {
		t := time.NewTimer(l.opts.Timeout)
		defer t.Stop()

		timeout = t.C
	}

	var cancelled <-chan struct{}
	if l.opts.KillOnCancel {
		cancelled = ctx.Done()
	}

	select {
	case <-timeout:
		logger.Info("timeout exceeded, killing process", "timeout", l.opts.Timeout)

		if killPs(logger, ps) {
			killed <- fmt.Errorf("%w after %s", ErrJobTimeout, l.opts.Timeout)
		}
	case <-cancelled:
		logger.Info("batch cancelled, killing process")

		if killPs(logger, ps) {
			killed <- errors.Join(ErrJobCancelled, context.Cause(ctx))
		}
	case <-done:
	}
}

// killPs kills the process. It returns false if the process had already exited.
func killPs(logger *slog.Logger, ps *os.Process) bool {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			logger.Debug("process already done", "pid", ps.Pid)
			return false
		}

		logger.Error("process kill error", "pid", ps.Pid, "error", err)

		return false
	}

	logger.Info("process killed", "pid", ps.Pid)

	return true
}

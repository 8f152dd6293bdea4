// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/fanout/internal/batch"
	"github.com/matt-FFFFFF/fanout/internal/progress"
)

// Work runs the batch. It gets the context to launch with and must return the
// summary of the collected results.
type Work func(ctx context.Context) (*batch.Summary, error)

// Runner manages the TUI application and progress event integration.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *TUIReporter
	mutex    sync.Mutex
}

// RunnerOption configures a Runner.
type RunnerOption func(*runnerConfig)

type runnerConfig struct {
	autoQuit bool
	program  []tea.ProgramOption
}

// WithAutoQuit closes the dashboard as soon as the batch is collected instead of
// waiting for the user.
func WithAutoQuit() RunnerOption {
	return func(c *runnerConfig) {
		c.autoQuit = true
	}
}

// WithProgramOptions passes options through to bubbletea, e.g. input and output.
func WithProgramOptions(opts ...tea.ProgramOption) RunnerOption {
	return func(c *runnerConfig) {
		c.program = append(c.program, opts...)
	}
}

// TUIReporter implements progress.Reporter and forwards events to the TUI.
type TUIReporter struct {
	program *tea.Program
	closed  bool
	mutex   sync.RWMutex
}

// NewTUIReporter creates a new TUI progress reporter.
func NewTUIReporter(program *tea.Program) *TUIReporter {
	return &TUIReporter{
		program: program,
	}
}

// Report implements progress.Reporter.
func (tr *TUIReporter) Report(event progress.Event) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	tr.program.Send(ProgressEventMsg{Event: event})
}

// Snapshot forwards a monitor snapshot to the TUI.
func (tr *TUIReporter) Snapshot(s batch.Snapshot) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	tr.program.Send(SnapshotMsg{Snapshot: s})
}

// Close implements progress.Reporter.
func (tr *TUIReporter) Close() {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	tr.closed = true
}

// NewRunner creates a new TUI runner for a batch of total jobs.
func NewRunner(ctx context.Context, total int, opts ...RunnerOption) *Runner {
	cfg := &runnerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	model := NewModel(total)
	model.autoQuit = cfg.autoQuit

	programOpts := append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	}, cfg.program...)

	program := tea.NewProgram(model, programOpts...)

	return &Runner{
		model:    model,
		program:  program,
		reporter: NewTUIReporter(program),
	}
}

// Reporter returns the progress reporter for this TUI runner. Pass it to the
// launcher so job transitions reach the dashboard.
func (r *Runner) Reporter() *TUIReporter {
	return r.reporter
}

// Run starts the TUI and executes work. Once work returns the dashboard shows
// the final state and waits for the user to quit, unless WithAutoQuit was given.
// If the user quits early, Run still waits for work so no result is lost.
// The error is work's error, or the TUI's when work succeeded.
func (r *Runner) Run(ctx context.Context, work Work) (*batch.Summary, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	type outcome struct {
		summary *batch.Summary
		err     error
	}

	workDone := make(chan outcome, 1)

	go func() {
		s, err := work(ctx)
		workDone <- outcome{summary: s, err: err}
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var (
		res    outcome
		tuiErr error
	)

	select {
	case res = <-workDone:
		r.program.Send(BatchCompletedMsg{Summary: res.summary})
		tuiErr = <-tuiDone

		r.reporter.Close()

	case tuiErr = <-tuiDone:
		r.reporter.Close()

		res = <-workDone
	}

	if res.err != nil {
		return res.summary, res.err
	}

	// A cancelled program context is reported by work through its own results.
	if tuiErr != nil && ctx.Err() == nil {
		return res.summary, tuiErr //nolint:wrapcheck
	}

	return res.summary, nil
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/fanout/internal/batch"
	"github.com/matt-FFFFFF/fanout/internal/progress"
)

const (
	defaultWidth       = 80
	defaultHeight      = 24
	progressBarWidth   = 40
	minViewportWidth   = 20
	minViewportHeight  = 3
	chromeHeight       = 9 // title, progress, counters, border, status bar and help
	durationRounding   = 100 * time.Millisecond
	ellipsis           = "..."
	statusColumnLength = 10
)

// JobRow is what the dashboard shows for one job.
type JobRow struct {
	ID         int
	State      batch.State
	Pid        int
	StartTime  *time.Time
	EndTime    *time.Time
	ExitCode   int
	LastOutput string
	ErrorMsg   string
}

// elapsed returns the run time so far, or the final duration once the job ended.
func (r *JobRow) elapsed(now time.Time) (time.Duration, bool) {
	if r.StartTime == nil {
		return 0, false
	}

	if r.EndTime != nil {
		return r.EndTime.Sub(*r.StartTime), true
	}

	return now.Sub(*r.StartTime), true
}

// Model is the bubbletea model of the batch dashboard.
// It is only mutated from Update, which bubbletea calls on a single goroutine.
type Model struct {
	rows      []*JobRow // rows[i] is job i+1
	completed int
	elapsed   time.Duration
	finished  bool
	quitting  bool
	autoQuit  bool
	summary   *batch.Summary
	width     int
	height    int
	bar       bprogress.Model
	viewport  viewport.Model
	styles    *Styles
	now       func() time.Time
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Output  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Status  lipgloss.Style
	Border  lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// NewModel creates a dashboard for a batch of total jobs.
func NewModel(total int) *Model {
	rows := make([]*JobRow, total)
	for i := range rows {
		rows[i] = &JobRow{ID: i + 1, State: batch.StatePending, ExitCode: batch.ExitCodeUnknown}
	}

	m := &Model{
		rows:   rows,
		width:  defaultWidth,
		height: defaultHeight,
		bar: bprogress.New(
			bprogress.WithDefaultGradient(),
			bprogress.WithWidth(progressBarWidth),
		),
		viewport: viewport.New(defaultWidth, defaultHeight-chromeHeight),
		styles:   NewStyles(),
		now:      time.Now,
	}
	m.updateViewportSize()

	return m
}

// Row returns the row of job id, or nil when id is out of range.
func (m *Model) Row(id int) *JobRow {
	if id < 1 || id > len(m.rows) {
		return nil
	}

	return m.rows[id-1]
}

// Completed returns the number of jobs the dashboard has seen finish.
func (m *Model) Completed() int {
	return m.completed
}

// Finished reports whether the batch has been collected.
func (m *Model) Finished() bool {
	return m.finished
}

// processProgressEvent applies a lifecycle event to its job row.
func (m *Model) processProgressEvent(ev progress.Event) {
	row := m.Row(ev.JobID)
	if row == nil {
		return
	}

	ts := ev.Timestamp
	if ts.IsZero() {
		ts = m.now()
	}

	switch ev.Type {
	case progress.EventQueued:
		row.State = batch.StatePending
	case progress.EventStarted:
		row.State = batch.StateRunning
		row.Pid = ev.Data.Pid
		row.StartTime = &ts
	case progress.EventCompleted, progress.EventFailed:
		if row.State.Terminal() {
			return
		}

		row.State = batch.StateSucceeded
		if ev.Type == progress.EventFailed {
			row.State = batch.StateFailed
		}

		row.ExitCode = ev.Data.ExitCode
		if ev.Data.Error != nil {
			row.ErrorMsg = ev.Data.Error.Error()
		}

		if row.StartTime != nil {
			end := row.StartTime.Add(ev.Data.Duration)
			row.EndTime = &end
		}

		m.completed++
	}
}

// processSnapshot refreshes counters and the last output line of running jobs.
func (m *Model) processSnapshot(s batch.Snapshot) {
	m.elapsed = s.Elapsed

	for _, js := range s.Jobs {
		row := m.Row(js.ID)
		if row == nil {
			continue
		}

		if js.LastLine != "" {
			row.LastOutput = js.LastLine
		}

		if row.Pid == 0 {
			row.Pid = js.Pid
		}
	}

	// Events may be dropped by a full reporter; the monitor's count is authoritative.
	m.completed = max(m.completed, s.Completed)
}

// processSummary records the final state of every job.
func (m *Model) processSummary(s *batch.Summary) {
	m.finished = true
	m.summary = s

	if s == nil {
		return
	}

	for _, res := range s.Results {
		row := m.Row(res.ID)
		if row == nil {
			continue
		}

		row.State = res.State
		row.ExitCode = res.ExitCode

		if res.Err != nil {
			row.ErrorMsg = res.Err.Error()
		}

		if res.Started() {
			start := res.StartTime
			row.StartTime = &start
		}

		if !res.EndTime.IsZero() {
			end := res.EndTime
			row.EndTime = &end
		}
	}

	m.completed = len(s.Results)
	m.elapsed = max(m.elapsed, s.TotalDuration)
}

// percent is the fraction of completed jobs.
func (m *Model) percent() float64 {
	if len(m.rows) == 0 {
		return 1
	}

	return float64(m.completed) / float64(len(m.rows))
}

func (m *Model) updateViewportSize() {
	m.viewport.Width = max(m.width-2, minViewportWidth)
	m.viewport.Height = max(m.height-chromeHeight, minViewportHeight)
	m.bar.Width = min(progressBarWidth, max(m.width-statusColumnLength, minViewportWidth))
}

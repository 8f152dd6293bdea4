// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/fanout/internal/batch"
	"github.com/matt-FFFFFF/fanout/internal/progress"
)

const minStatusBarAvailableHeight = 10

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// SnapshotMsg carries a monitor snapshot.
type SnapshotMsg struct {
	Snapshot batch.Snapshot
}

// BatchCompletedMsg indicates that every job has been collected.
type BatchCompletedMsg struct {
	Summary *batch.Summary
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.EnableMouseCellMotion,
	)
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewportSize()

		return m, cmd

	case ProgressEventMsg:
		m.processProgressEvent(msg.Event)
		return m, cmd

	case SnapshotMsg:
		m.processSnapshot(msg.Snapshot)
		return m, cmd

	case BatchCompletedMsg:
		m.processSummary(msg.Summary)

		if m.autoQuit {
			m.quitting = true
			return m, tea.Quit
		}

		return m, cmd

	case tea.QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, cmd
}

// handleKeyPress processes keyboard input. Scrolling is left to the viewport.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var content strings.Builder

	for _, row := range m.rows {
		m.renderRow(&content, row)
	}

	if m.finished {
		content.WriteString("\n")
		content.WriteString(m.renderCompletion())
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())

	var view strings.Builder

	view.WriteString(m.styles.Title.Render(fmt.Sprintf("fanout: %d jobs", len(m.rows))))
	view.WriteString("\n")
	view.WriteString(m.bar.ViewAs(m.percent()))
	view.WriteString("\n")
	view.WriteString(m.styles.Status.Render(fmt.Sprintf("%d/%d completed, elapsed %s",
		m.completed, len(m.rows), batch.FormatHMS(m.elapsed))))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))

	if m.height > minStatusBarAvailableHeight {
		view.WriteString("\n")
		view.WriteString(m.renderStatusBar())
		view.WriteString("\n")

		helpText := "↑/↓ or j/k to scroll, PgUp/PgDn for pages, 'q' to close the dashboard"
		if m.finished {
			helpText = "↑/↓ or j/k to scroll, 'q' to quit and return to terminal"
		}

		view.WriteString(m.styles.Help.Render(helpText))
	}

	return view.String()
}

// renderRow renders one job on a single line: status, id, timing, then the last
// output line while running or the error once failed.
func (m *Model) renderRow(b *strings.Builder, row *JobRow) {
	var (
		icon  string
		style lipgloss.Style
	)

	switch row.State {
	case batch.StateRunning:
		icon, style = "⚡", m.styles.Running
	case batch.StateSucceeded:
		icon, style = "✅", m.styles.Success
	case batch.StateFailed:
		icon, style = "❌", m.styles.Failed
	default:
		icon, style = "⏳", m.styles.Pending
	}

	left := fmt.Sprintf("%s %s", icon, style.Render(fmt.Sprintf("job %d", row.ID)))
	if d, ok := row.elapsed(m.now()); ok {
		left += m.styles.Output.Render(fmt.Sprintf(" (%v)", d.Round(durationRounding)))
	}

	var right string

	switch {
	case row.State == batch.StateFailed && row.ErrorMsg != "":
		right = m.styles.Error.Render(truncate("Error: "+oneLine(row.ErrorMsg), m.viewport.Width/2))
	case row.State == batch.StateRunning && row.LastOutput != "":
		right = m.styles.Output.Render(truncate(row.LastOutput, m.viewport.Width/2))
	}

	leftWidth := m.viewport.Width / 2
	if w := lipgloss.Width(left); w < leftWidth {
		left += strings.Repeat(" ", leftWidth-w)
	}

	b.WriteString(left)
	b.WriteString(right)
	b.WriteString("\n")
}

func (m *Model) renderCompletion() string {
	if m.summary == nil {
		return m.styles.Failed.Render("⚠️  Batch did not complete")
	}

	if m.summary.Failed > 0 {
		return m.styles.Failed.Render(fmt.Sprintf("⚠️  %d of %d jobs failed", m.summary.Failed, m.summary.NumJobs))
	}

	return m.styles.Success.Render(fmt.Sprintf("✅ All %d jobs succeeded", m.summary.NumJobs))
}

func (m *Model) renderStatusBar() string {
	var pending, running, succeeded, failed int

	for _, row := range m.rows {
		switch row.State {
		case batch.StatePending:
			pending++
		case batch.StateRunning:
			running++
		case batch.StateSucceeded:
			succeeded++
		case batch.StateFailed:
			failed++
		}
	}

	return strings.Join([]string{
		m.styles.Pending.Render(fmt.Sprintf("pending %d", pending)),
		m.styles.Running.Render(fmt.Sprintf("running %d", running)),
		m.styles.Success.Render(fmt.Sprintf("ok %d", succeeded)),
		m.styles.Failed.Render(fmt.Sprintf("failed %d", failed)),
	}, "  ")
}

func truncate(s string, width int) string {
	if width <= len(ellipsis) || len(s) <= width {
		return s
	}

	return s[:width-len(ellipsis)] + ellipsis
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

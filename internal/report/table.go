// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/matt-FFFFFF/fanout/internal/batch"
	"github.com/matt-FFFFFF/fanout/internal/color"
)

const (
	tableTimeFormat = "15:04:05.000"
	placeholder     = "-"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// WriteTable renders the per-job table followed by the batch statistics.
func WriteTable(w io.Writer, r *Report) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STATUS", "DURATION", "START", "END", "EXIT").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})

	for _, j := range r.Jobs {
		t.Row(
			strconv.Itoa(j.ID),
			status(j),
			formatSeconds(j.DurationSeconds),
			formatTime(j.StartTime),
			formatTime(j.EndTime),
			formatExit(j.ExitCode),
		)
	}

	var sb strings.Builder

	sb.WriteString(t.Render())
	sb.WriteString("\n")
	sb.WriteString(Stats(r))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())

	return err //nolint:wrapcheck
}

// Stats returns the batch statistics as two lines of text.
func Stats(r *Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Jobs: %d  %s  %s  Total: %s (%.2fs)\n",
		r.NumJobs,
		color.Colorize(fmt.Sprintf("Succeeded: %d", r.Succeeded), color.FgGreen),
		color.Colorize(fmt.Sprintf("Failed: %d", r.Failed), failedColour(r.Failed)),
		r.TotalDurationFormatted,
		r.TotalDurationSeconds,
	)

	if r.AvgDurationSeconds == nil {
		sb.WriteString("Duration: no successful jobs")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Duration: avg %s  min %s  max %s",
		formatSeconds(r.AvgDurationSeconds),
		formatSeconds(r.MinDurationSeconds),
		formatSeconds(r.MaxDurationSeconds),
	)

	return sb.String()
}

func status(j JobEntry) string {
	switch {
	case j.Successful:
		return color.Colorize("✓ ok", color.FgGreen)
	case j.ExitCode == nil:
		return color.Colorize("~ abandoned", color.FgYellow)
	default:
		return color.Colorize("✗ failed", color.FgRed)
	}
}

func failedColour(n int) color.Code {
	if n > 0 {
		return color.FgRed
	}

	return color.FgWhite
}

func formatSeconds(s *float64) string {
	if s == nil {
		return placeholder
	}

	return fmt.Sprintf("%.2fs", *s)
}

func formatTime(s *string) string {
	if s == nil {
		return placeholder
	}

	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return *s
	}

	return t.Local().Format(tableTimeFormat)
}

func formatExit(code *int) string {
	if code == nil {
		return placeholder
	}

	return strconv.Itoa(*code)
}

// ProgressLine is the one-line live progress text: completed/total and elapsed.
func ProgressLine(s batch.Snapshot) string {
	return fmt.Sprintf("%d/%d completed, elapsed %s", s.Completed, s.Total, batch.FormatHMS(s.Elapsed))
}

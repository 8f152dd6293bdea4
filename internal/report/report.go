// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/fanout/internal/batch"
	"github.com/spf13/afero"
)

// Format is the encoding of the aggregate report.
type Format string

const (
	// FormatJSON writes report.json.
	FormatJSON Format = "json"
	// FormatYAML writes report.yaml.
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for a report format other than json or yaml.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat parses json or yaml (any case). An empty string means json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FileName returns the aggregate report file name for the format.
func (f Format) FileName() string {
	if f == FormatYAML {
		return "report.yaml"
	}

	return "report.json"
}

// LogFileName returns the deterministic log file name for a job.
func LogFileName(id int) string {
	return "job_" + strconv.Itoa(id) + ".log"
}

// Report is the aggregate report document.
type Report struct {
	NumJobs                int        `json:"num_jobs" yaml:"num_jobs"`
	Succeeded              int        `json:"succeeded" yaml:"succeeded"`
	Failed                 int        `json:"failed" yaml:"failed"`
	TotalDurationSeconds   float64    `json:"total_duration_seconds" yaml:"total_duration_seconds"`
	TotalDurationFormatted string     `json:"total_duration_formatted" yaml:"total_duration_formatted"`
	AvgDurationSeconds     *float64   `json:"avg_duration_seconds" yaml:"avg_duration_seconds"`
	MinDurationSeconds     *float64   `json:"min_duration_seconds" yaml:"min_duration_seconds"`
	MaxDurationSeconds     *float64   `json:"max_duration_seconds" yaml:"max_duration_seconds"`
	Jobs                   []JobEntry `json:"jobs" yaml:"jobs"`
}

// JobEntry is one job in the aggregate report. Absent values are null.
type JobEntry struct {
	ID              int      `json:"id" yaml:"id"`
	Successful      bool     `json:"successful" yaml:"successful"`
	DurationSeconds *float64 `json:"duration_seconds" yaml:"duration_seconds"`
	StartTime       *string  `json:"start_time" yaml:"start_time"`
	EndTime         *string  `json:"end_time" yaml:"end_time"`
	ExitCode        *int     `json:"exit_code" yaml:"exit_code"`
	Error           string   `json:"error,omitempty" yaml:"error,omitempty"`
	LogFile         string   `json:"log_file" yaml:"log_file"`
}

// Build converts a summary into a report. Every job is given its log file name.
func Build(s *batch.Summary) *Report {
	r := &Report{
		NumJobs:                s.NumJobs,
		Succeeded:              s.Succeeded,
		Failed:                 s.Failed,
		TotalDurationSeconds:   s.TotalDuration.Seconds(),
		TotalDurationFormatted: batch.FormatHMS(s.TotalDuration),
		AvgDurationSeconds:     seconds(s.AvgDuration),
		MinDurationSeconds:     seconds(s.MinDuration),
		MaxDurationSeconds:     seconds(s.MaxDuration),
		Jobs:                   make([]JobEntry, 0, len(s.Results)),
	}

	for _, res := range s.Results {
		r.Jobs = append(r.Jobs, entry(res))
	}

	return r
}

func entry(res *batch.Result) JobEntry {
	e := JobEntry{
		ID:         res.ID,
		Successful: res.Successful(),
		LogFile:    LogFileName(res.ID),
	}

	if d, ok := res.Duration(); ok {
		e.DurationSeconds = seconds(&d)
	}

	e.StartTime = timestamp(res.StartTime)
	e.EndTime = timestamp(res.EndTime)

	if !res.Abandoned() {
		code := res.ExitCode
		e.ExitCode = &code
	}

	if res.Err != nil {
		e.Error = oneLine(res.Err)
	}

	return e
}

// Encode renders the report in the given format.
func (r *Report) Encode(f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		b, err := yaml.MarshalWithOptions(r, yaml.Indent(2))
		if err != nil {
			return nil, fmt.Errorf("encoding yaml report: %w", err)
		}

		return b, nil
	case FormatJSON, "":
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json report: %w", err)
		}

		return append(b, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Load reads a saved report. Files ending in .yaml or .yml are YAML; anything
// else is JSON.
func Load(fs afero.Fs, path string) (*Report, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}

	r := new(Report)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, r)
	default:
		err = json.Unmarshal(b, r)
	}

	if err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}

	return r, nil
}

// Durations returns the average, minimum and maximum as durations, nil when absent.
func (r *Report) Durations() (avg, minimum, maximum *time.Duration) {
	return duration(r.AvgDurationSeconds), duration(r.MinDurationSeconds), duration(r.MaxDurationSeconds)
}

func seconds(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}

	s := d.Seconds()

	return &s
}

func duration(s *float64) *time.Duration {
	if s == nil {
		return nil
	}

	d := time.Duration(*s * float64(time.Second))

	return &d
}

func timestamp(t time.Time) *string {
	if t.IsZero() {
		return nil
	}

	s := t.Format(time.RFC3339Nano)

	return &s
}

// oneLine flattens joined errors, which print one per line.
func oneLine(err error) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(err.Error(), "\n", "; ")), " ")
}

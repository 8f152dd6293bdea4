// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

const (
	// DefaultOutputDir is where results go when nothing else is configured.
	DefaultOutputDir = "results"
	// DefaultReportFormat is the aggregate report encoding.
	DefaultReportFormat = "json"
	// DefaultPollInterval is the progress cadence.
	DefaultPollInterval = 2 * time.Second
)

var (
	// ErrInvalidConfig is returned when validation finds one or more problems.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrParseConfig is returned when a configuration file cannot be decoded.
	ErrParseConfig = errors.New("failed to parse configuration file")
	// ErrUnsupportedFileType is returned for files that are neither YAML nor HCL.
	ErrUnsupportedFileType = errors.New("unsupported configuration file type")
)

// Config is the complete batch configuration.
type Config struct {
	Command          string
	WorkingDirectory string
	Count            int
	MaxParallel      int
	Timeout          time.Duration
	PollInterval     time.Duration
	OutputDir        string
	ReportFormat     string
	IsolateWorkdirs  bool
	NoShell          bool
	Shell            string
	KillOnCancel     bool
	MetricsFile      string
	Env              map[string]string
}

// Default returns the configuration used when no file or flag says otherwise.
func Default() *Config {
	return &Config{
		WorkingDirectory: ".",
		PollInterval:     DefaultPollInterval,
		OutputDir:        DefaultOutputDir,
		ReportFormat:     DefaultReportFormat,
		Env:              map[string]string{},
	}
}

// file is the on-disk shape shared by the YAML and HCL decoders. Durations are
// strings so both formats accept Go duration syntax such as "1m30s".
type file struct {
	Command          *string           `yaml:"command" hcl:"command,optional" docdesc:"Command line every job runs."`
	WorkingDirectory *string           `yaml:"working_directory" hcl:"working_directory,optional" docdesc:"Working directory of the jobs."`
	Count            *int              `yaml:"count" hcl:"count,optional" docdesc:"Number of jobs, at least 1."`
	MaxParallel      *int              `yaml:"max_parallel" hcl:"max_parallel,optional" docdesc:"Maximum jobs running at once, 0 for no limit."`
	Timeout          *string           `yaml:"timeout" hcl:"timeout,optional" docdesc:"Per-job time limit as a Go duration, e.g. 5m."`
	PollInterval     *string           `yaml:"poll_interval" hcl:"poll_interval,optional" docdesc:"Progress cadence as a Go duration."`
	OutputDir        *string           `yaml:"output_dir" hcl:"output_dir,optional" docdesc:"Directory for job logs and the report."`
	ReportFormat     *string           `yaml:"report_format" hcl:"report_format,optional" docdesc:"Aggregate report encoding." docenum:"json|yaml"`
	IsolateWorkdirs  *bool             `yaml:"isolate_workdirs" hcl:"isolate_workdirs,optional" docdesc:"Run each job in its own job_<id> subdirectory."`
	NoShell          *bool             `yaml:"no_shell" hcl:"no_shell,optional" docdesc:"Split the command on whitespace instead of using a shell."`
	Shell            *string           `yaml:"shell" hcl:"shell,optional" docdesc:"Shell used to run the command."`
	KillOnCancel     *bool             `yaml:"kill_on_cancel" hcl:"kill_on_cancel,optional" docdesc:"Kill running jobs when the batch is cancelled."`
	MetricsFile      *string           `yaml:"metrics_file" hcl:"metrics_file,optional" docdesc:"Path of a Prometheus textfile to write."`
	Env              map[string]string `yaml:"env" hcl:"env,optional" docdesc:"Extra environment for every job."`
}

// Document returns the on-disk configuration shape, for schema generation.
func Document() any {
	return file{}
}

// apply copies every value present in f onto c.
func (f *file) apply(c *Config) error {
	var err error

	setString(&c.Command, f.Command)
	setString(&c.WorkingDirectory, f.WorkingDirectory)
	setString(&c.OutputDir, f.OutputDir)
	setString(&c.ReportFormat, f.ReportFormat)
	setString(&c.Shell, f.Shell)
	setString(&c.MetricsFile, f.MetricsFile)

	if f.Count != nil {
		c.Count = *f.Count
	}

	if f.MaxParallel != nil {
		c.MaxParallel = *f.MaxParallel
	}

	if f.IsolateWorkdirs != nil {
		c.IsolateWorkdirs = *f.IsolateWorkdirs
	}

	if f.NoShell != nil {
		c.NoShell = *f.NoShell
	}

	if f.KillOnCancel != nil {
		c.KillOnCancel = *f.KillOnCancel
	}

	if f.Timeout != nil {
		d, perr := time.ParseDuration(*f.Timeout)
		if perr != nil {
			err = multierror.Append(err, fmt.Errorf("timeout: %w", perr))
		}

		c.Timeout = d
	}

	if f.PollInterval != nil {
		d, perr := time.ParseDuration(*f.PollInterval)
		if perr != nil {
			err = multierror.Append(err, fmt.Errorf("poll_interval: %w", perr))
		}

		c.PollInterval = d
	}

	if c.Env == nil {
		c.Env = make(map[string]string, len(f.Env))
	}

	for k, v := range f.Env {
		c.Env[k] = v
	}

	return err
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var err error

	if strings.TrimSpace(c.Command) == "" {
		err = multierror.Append(err, errors.New("command must not be empty"))
	}

	if c.Count < 1 {
		err = multierror.Append(err, fmt.Errorf("count must be a positive integer, got %d", c.Count))
	}

	if c.MaxParallel < 0 {
		err = multierror.Append(err, fmt.Errorf("max_parallel must not be negative, got %d", c.MaxParallel))
	}

	if c.Timeout < 0 {
		err = multierror.Append(err, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}

	if c.PollInterval <= 0 {
		err = multierror.Append(err, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}

	switch strings.ToLower(c.ReportFormat) {
	case "json", "yaml", "yml":
	default:
		err = multierror.Append(err, fmt.Errorf("report_format must be json or yaml, got %q", c.ReportFormat))
	}

	if c.NoShell && c.Shell != "" {
		err = multierror.Append(err, errors.New("shell and no_shell are mutually exclusive"))
	}

	if c.OutputDir == "" {
		err = multierror.Append(err, errors.New("output_dir must not be empty"))
	}

	for k := range c.Env {
		if k == "" || strings.Contains(k, "=") {
			err = multierror.Append(err, fmt.Errorf("env: invalid variable name %q", k))
		}
	}

	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	return nil
}

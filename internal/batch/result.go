// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"bufio"
	"bytes"
	"errors"
	"time"
)

// ExitCodeUnknown is the exit code recorded when a job has no real exit status:
// it never started, was killed, crashed or was abandoned.
const ExitCodeUnknown = -1

// Result is the outcome of one job. It is not modified after it is created.
type Result struct {
	ID        int       // Job id
	Output    []byte    // Combined stdout and stderr, verbatim
	ExitCode  int       // Process exit code, ExitCodeUnknown if there is none
	Err       error     // Why the job failed, nil on success
	StartTime time.Time // Zero if the job never started
	EndTime   time.Time // Zero if the job never started or was abandoned
	State     State     // StateSucceeded or StateFailed
}

// Successful reports whether the job exited with status 0.
func (r *Result) Successful() bool {
	return r.ExitCode == 0
}

// Started reports whether the job's process was started.
func (r *Result) Started() bool {
	return !r.StartTime.IsZero()
}

// Abandoned reports whether the job was still running when collection stopped.
// Its exit code is not known.
func (r *Result) Abandoned() bool {
	return errors.Is(r.Err, ErrJobAbandoned)
}

// Duration returns EndTime - StartTime. The boolean is false when either
// timestamp is missing.
func (r *Result) Duration() (time.Duration, bool) {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return 0, false
	}

	return max(r.EndTime.Sub(r.StartTime), 0), true
}

// Lines splits Output into lines without their terminators.
// A trailing line without a newline is included.
func (r *Result) Lines() []string {
	if len(r.Output) == 0 {
		return nil
	}

	var lines []string

	sc := bufio.NewScanner(bytes.NewReader(r.Output))
	sc.Buffer(make([]byte, 0, 64*1024), len(r.Output)+1)

	for sc.Scan() {
		lines = append(lines, sc.Text())
	}

	return lines
}

// launchFailure is the result for a job whose process never ran.
func launchFailure(id int, err error) *Result {
	return &Result{
		ID:       id,
		ExitCode: ExitCodeUnknown,
		Err:      errors.Join(ErrJobLaunch, err),
		State:    StateFailed,
	}
}

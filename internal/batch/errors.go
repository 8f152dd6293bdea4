// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"errors"
)

var (
	// ErrInvalidBatch is returned when the batch definition is rejected before anything starts.
	ErrInvalidBatch = errors.New("invalid batch")
	// ErrJobLaunch is recorded when a job's process could not be started.
	ErrJobLaunch = errors.New("job could not be launched")
	// ErrJobRuntime is recorded when a job started but did not exit cleanly.
	ErrJobRuntime = errors.New("job failed")
	// ErrJobTimeout is recorded when a job exceeded its deadline and was killed.
	ErrJobTimeout = errors.New("job timeout exceeded")
	// ErrOutputOverflow is recorded when a job wrote more output than the capture limit.
	ErrOutputOverflow = errors.New("job output exceeds capture limit")
	// ErrJobAbandoned is recorded for jobs still running when collection was cancelled.
	ErrJobAbandoned = errors.New("job abandoned before completion")
	// ErrJobCancelled is recorded when a job was killed because the batch was cancelled.
	ErrJobCancelled = errors.New("job killed on cancellation")
	// ErrCrashedBeforeOutput is recorded when a job was terminated by a signal before writing anything.
	ErrCrashedBeforeOutput = errors.New("process terminated before producing output")
	// ErrAlreadyCollected is returned when a handle's result is taken a second time.
	ErrAlreadyCollected = errors.New("job result already collected")
	// ErrJobNotFinished is returned when a handle's result is taken before the job is terminal.
	ErrJobNotFinished = errors.New("job has not finished")
	// ErrCommandNotFound is recorded when the executable cannot be found in PATH.
	ErrCommandNotFound = errors.New("command not found")
)

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

// State is the lifecycle state of a job.
//
//	Pending -> Running -> {Succeeded, Failed}
//	Pending -> Failed (launch failure)
type State int32

const (
	// StatePending means the job has not started, e.g. it is waiting for a concurrency slot.
	StatePending State = iota
	// StateRunning means the job's process is alive.
	StateRunning
	// StateSucceeded means the process exited with status 0.
	StateSucceeded
	// StateFailed means the job could not start or did not exit cleanly.
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

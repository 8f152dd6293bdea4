// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matt-FFFFFF/fanout/internal/teereader"
)

// lastLineMax bounds the length of Handle.LastLine.
const lastLineMax = 120

// Handle is the orchestrator's reference to one job.
//
// ID, State, Done, LastLine and Pid are read-only observers and may be called
// from any goroutine at any time. The result is taken once with Take.
type Handle struct {
	spec  JobSpec
	state atomic.Int32
	pid   atomic.Int64
	done  chan struct{}
	out   atomic.Pointer[teereader.LastLineTeeReader]

	mu        sync.Mutex
	startTime time.Time
	result    *Result
	collected bool
}

func newHandle(spec JobSpec) *Handle {
	return &Handle{
		spec: spec,
		done: make(chan struct{}),
	}
}

// ID returns the job id.
func (h *Handle) ID() int {
	return h.spec.ID
}

// Spec returns a copy of the job specification.
func (h *Handle) Spec() JobSpec {
	return h.spec
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Done is closed when the job reaches a terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Pid returns the process id, or 0 if the process has not started.
func (h *Handle) Pid() int {
	return int(h.pid.Load())
}

// LastLine returns the most recent complete line of output, shortened for display.
// It never consumes output.
func (h *Handle) LastLine() string {
	if tee := h.out.Load(); tee != nil {
		return tee.LastLine(lastLineMax)
	}

	return ""
}

// StartTime returns when the process started. The boolean is false if it has not.
func (h *Handle) StartTime() (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.startTime, !h.startTime.IsZero()
}

// Take returns the job's result and releases the handle's buffers.
// It fails with ErrJobNotFinished before the job is terminal and with
// ErrAlreadyCollected on every call after the first.
func (h *Handle) Take() (*Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.collected {
		return nil, ErrAlreadyCollected
	}

	if h.result == nil {
		return nil, ErrJobNotFinished
	}

	h.collected = true
	r := h.result
	h.result = nil
	h.out.Store(nil)

	return r, nil
}

func (h *Handle) isCollected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.collected
}

// markRunning records the start of the process.
func (h *Handle) markRunning(start time.Time, pid int, out *teereader.LastLineTeeReader) {
	h.mu.Lock()
	h.startTime = start
	h.mu.Unlock()

	h.pid.Store(int64(pid))
	h.out.Store(out)
	h.state.Store(int32(StateRunning))
}

// finish stores the terminal result and closes Done. If the handle was already
// abandoned the result is dropped.
func (h *Handle) finish(r *Result) {
	h.mu.Lock()
	if !h.collected {
		h.result = r
	}
	h.mu.Unlock()

	h.state.Store(int32(r.State))
	close(h.done)
}

// abandon takes the handle without waiting for the job. If the job finished in
// the meantime its real result is returned instead. The process is left alone.
func (h *Handle) abandon(cause error) (*Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.collected {
		return nil, ErrAlreadyCollected
	}

	h.collected = true

	if h.result != nil {
		r := h.result
		h.result = nil
		h.out.Store(nil)

		return r, nil
	}

	r := &Result{
		ID:        h.spec.ID,
		ExitCode:  ExitCodeUnknown,
		Err:       errors.Join(ErrJobRuntime, ErrJobAbandoned, cause),
		StartTime: h.startTime,
		State:     StateFailed,
	}

	if tee := h.out.Swap(nil); tee != nil {
		r.Output = tee.Bytes()
	}

	return r, nil
}

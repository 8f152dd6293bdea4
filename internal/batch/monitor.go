// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"sync"
	"time"

	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
)

// DefaultPollInterval is the progress cadence used when Watch gets a non-positive interval.
const DefaultPollInterval = 2 * time.Second

// JobStatus is a point-in-time view of one job.
type JobStatus struct {
	ID       int
	State    State
	Pid      int
	LastLine string
	Elapsed  time.Duration // Time since the job started, 0 if it has not
}

// Snapshot is a point-in-time view of the batch.
type Snapshot struct {
	Completed int           // Jobs in a terminal state
	Total     int           // Jobs in the batch
	Elapsed   time.Duration // Time since Watch was called
	Jobs      []JobStatus   // Ordered like the handles passed to Watch
}

// Done reports whether every job is terminal.
func (s Snapshot) Done() bool {
	return s.Completed == s.Total
}

// Watch reports batch progress. It emits a snapshot straight away, then every
// interval, and closes the channel right after the snapshot in which every job is
// terminal. It also closes when ctx is done.
//
// Watch only reads handle state; it never takes results or output. Completion is
// observed through each handle's Done channel so a job finishing is counted
// immediately, while snapshots keep to the interval. Snapshots are not dropped,
// so a slow consumer delays the next one but never blocks the jobs.
func Watch(ctx context.Context, handles []*Handle, interval time.Duration) <-chan Snapshot {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	out := make(chan Snapshot)
	finished := make(chan int, len(handles))
	start := time.Now()

	var wg sync.WaitGroup

	for _, h := range handles {
		wg.Add(1)

		go func() {
			defer wg.Done()

			select {
			case <-h.Done():
				finished <- h.ID()
			case <-ctx.Done():
			}
		}()
	}

	go func() {
		defer close(out)
		defer wg.Wait()

		logger := ctxlog.Logger(ctx).With("component", "monitor")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		completed := 0

		emit := func() bool {
			snap := snapshot(handles, completed, start)

			select {
			case out <- snap:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		for completed < len(handles) {
			select {
			case id := <-finished:
				completed++
				logger.Debug("job finished", "jobID", id, "completed", completed, "total", len(handles))

				continue
			case <-ticker.C:
			case <-ctx.Done():
				return
			}

			if !emit() {
				return
			}
		}

		emit()
	}()

	return out
}

func snapshot(handles []*Handle, completed int, start time.Time) Snapshot {
	now := time.Now()
	snap := Snapshot{
		Completed: completed,
		Total:     len(handles),
		Elapsed:   now.Sub(start),
		Jobs:      make([]JobStatus, len(handles)),
	}

	for i, h := range handles {
		js := JobStatus{
			ID:       h.ID(),
			State:    h.State(),
			Pid:      h.Pid(),
			LastLine: h.LastLine(),
		}

		if st, ok := h.StartTime(); ok && !js.State.Terminal() {
			js.Elapsed = now.Sub(st)
		}

		snap.Jobs[i] = js
	}

	return snap
}

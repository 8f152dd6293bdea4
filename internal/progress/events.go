// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a lifecycle transition of one job.
type Event struct {
	JobID     int       // Job id, 1..N
	Type      EventType // What happened
	Message   string    // Human-readable status message
	Timestamp time.Time // When it happened
	Data      EventData // Type-specific data
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventQueued indicates a job is waiting for a concurrency slot.
	EventQueued EventType = iota
	// EventStarted indicates the job's process is running.
	EventStarted
	// EventCompleted indicates the job exited with status 0.
	EventCompleted
	// EventFailed indicates the job could not start, exited non-zero or crashed.
	EventFailed
)

// String implements fmt.Stringer.
func (et EventType) String() string {
	switch et {
	case EventQueued:
		return "queued"
	case EventStarted:
		return "started"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events follow for the job.
func (et EventType) Terminal() bool {
	return et == EventCompleted || et == EventFailed
}

// EventData contains type-specific information for progress events.
type EventData struct {
	// For EventStarted
	Pid int

	// For EventCompleted/EventFailed
	ExitCode int
	Error    error
	Duration time.Duration
}

// Reporter receives events. Implementations must not block the caller.
type Reporter interface {
	// Report sends an event.
	Report(event Event)
	// Close signals that no more events will be sent.
	Close()
}

// Listener consumes events delivered by a ChannelReporter.
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// OnEvent calls f(event).
func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}

// NullReporter discards everything.
type NullReporter struct{}

// Report implements Reporter.
func (NullReporter) Report(Event) {}

// Close implements Reporter.
func (NullReporter) Close() {}

// NewNullReporter returns a Reporter that discards events.
func NewNullReporter() Reporter {
	return NullReporter{}
}

// MultiReporter fans events out to several reporters.
type MultiReporter []Reporter

// Report implements Reporter.
func (m MultiReporter) Report(event Event) {
	for _, r := range m {
		r.Report(event)
	}
}

// Close implements Reporter.
func (m MultiReporter) Close() {
	for _, r := range m {
		r.Close()
	}
}

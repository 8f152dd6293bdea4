// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestEventType_String(t *testing.T) {
	tests := []struct {
		eventType EventType
		expected  string
		terminal  bool
	}{
		{eventType: EventQueued, expected: "queued"},
		{eventType: EventStarted, expected: "started"},
		{eventType: EventCompleted, expected: "completed", terminal: true},
		{eventType: EventFailed, expected: "failed", terminal: true},
		{eventType: EventType(999), expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.eventType.String())
			assert.Equal(t, tt.terminal, tt.eventType.Terminal())
		})
	}
}

func TestNullReporter(t *testing.T) {
	r := NewNullReporter()
	assert.NotPanics(t, func() {
		r.Report(Event{JobID: 1, Type: EventStarted})
		r.Close()
	})
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ids() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.JobID)
	}

	return out
}

func TestChannelReporter_DeliversBufferedEventsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	cr := NewChannelReporter(context.Background(), 10)
	rec := &recorder{}

	for i := 1; i <= 3; i++ {
		cr.Report(Event{JobID: i, Type: EventCompleted, Timestamp: time.Now()})
	}

	cr.Listen(rec)
	cr.Close()

	assert.Equal(t, []int{1, 2, 3}, rec.ids())
}

func TestChannelReporter_DropsWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	cr := NewChannelReporter(context.Background(), 1)
	cr.Report(Event{JobID: 1})
	cr.Report(Event{JobID: 2})

	rec := &recorder{}
	cr.Listen(rec)
	cr.Close()

	assert.Equal(t, []int{1}, rec.ids())
}

func TestChannelReporter_ReportAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	cr := NewChannelReporter(context.Background(), 1)
	cr.Close()

	assert.NotPanics(t, func() { cr.Report(Event{JobID: 1}) })
	assert.NotPanics(t, cr.Close, "close is idempotent")
}

func TestMultiReporter(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := NewChannelReporter(context.Background(), 4)
	b := NewChannelReporter(context.Background(), 4)
	ra, rb := &recorder{}, &recorder{}

	a.Listen(ra)
	b.Listen(rb)

	m := MultiReporter{a, b}
	m.Report(Event{JobID: 5, Type: EventStarted})
	m.Close()

	assert.Equal(t, []int{5}, ra.ids())
	assert.Equal(t, []int{5}, rb.ids())
}

func TestListenerFunc(t *testing.T) {
	var got Event

	ListenerFunc(func(e Event) { got = e }).OnEvent(Event{JobID: 9})
	assert.Equal(t, 9, got.JobID)
}

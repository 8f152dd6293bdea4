// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func ids(results []*Result) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.ID
	}

	return out
}

func TestCollect_OrderedByIDRegardlessOfCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)

	hs := fakeHandles(4)

	go func() {
		for i := len(hs) - 1; i >= 0; i-- {
			succeed(hs[i])
			time.Sleep(5 * time.Millisecond)
		}
	}()

	results, err := Collect(context.Background(), hs)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, ids(results))
}

func TestCollect_FastJobNotDelayedBySlowOne(t *testing.T) {
	defer goleak.VerifyNone(t)

	hs := fakeHandles(2)
	succeed(hs[1])

	collected := make(chan struct{})

	go func() {
		defer close(collected)

		_, _ = Collect(context.Background(), hs)
	}()

	// Job 2 is taken while job 1 is still running.
	require.Eventually(t, func() bool {
		hs[1].mu.Lock()
		defer hs[1].mu.Unlock()

		return hs[1].collected
	}, time.Second, 5*time.Millisecond)

	hs[0].mu.Lock()
	assert.False(t, hs[0].collected)
	hs[0].mu.Unlock()

	succeed(hs[0])
	<-collected
}

func TestCollect_NeverStarted(t *testing.T) {
	defer goleak.VerifyNone(t)

	hs := fakeHandles(3)
	succeed(hs[0])
	hs[1].finish(launchFailure(2, ErrCommandNotFound))
	succeed(hs[2])

	results, err := Collect(context.Background(), hs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	r := results[1]
	assert.Equal(t, ExitCodeUnknown, r.ExitCode)
	assert.Empty(t, r.Output)
	assert.ErrorIs(t, r.Err, ErrJobLaunch)

	_, ok := r.Duration()
	assert.False(t, ok)
}

func TestCollect_Twice(t *testing.T) {
	defer goleak.VerifyNone(t)

	hs := fakeHandles(2)
	succeed(hs[0])
	succeed(hs[1])

	_, err := Collect(context.Background(), hs)
	require.NoError(t, err)

	results, err := Collect(context.Background(), hs)
	require.ErrorIs(t, err, ErrAlreadyCollected)
	assert.Nil(t, results)
}

func TestCollect_PartlyCollectedTakesNothing(t *testing.T) {
	defer goleak.VerifyNone(t)

	hs := fakeHandles(3)
	for _, h := range hs {
		succeed(h)
	}

	_, err := hs[1].Take()
	require.NoError(t, err)

	results, err := Collect(context.Background(), hs)
	require.ErrorIs(t, err, ErrAlreadyCollected)
	assert.Nil(t, results)

	// The untouched handles still hold their results.
	for _, h := range []*Handle{hs[0], hs[2]} {
		r, err := h.Take()
		require.NoError(t, err, "job %d", h.ID())
		assert.Equal(t, h.ID(), r.ID)
	}
}

func TestCollect_CancelledAbandonsUnfinished(t *testing.T) {
	defer goleak.VerifyNone(t)

	hs := fakeHandles(3)
	succeed(hs[0])
	hs[1].markRunning(epoch, 99, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	results, err := Collect(ctx, hs)
	require.ErrorIs(t, err, ErrJobAbandoned)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, results, 3)
	assert.Equal(t, []int{1, 2, 3}, ids(results))

	assert.True(t, results[0].Successful())

	for _, r := range results[1:] {
		assert.True(t, r.Abandoned(), "job %d", r.ID)
		assert.Equal(t, ExitCodeUnknown, r.ExitCode)
		assert.False(t, r.Successful())
	}

	assert.Equal(t, epoch, results[1].StartTime)
	assert.False(t, results[2].Started())
}

func TestCollect_ReturnsEveryID(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("collect returns ids 1..N", prop.ForAll(
		func(n int) bool {
			hs := fakeHandles(n)
			for _, h := range hs {
				go succeed(h)
			}

			results, err := Collect(context.Background(), hs)
			if err != nil || len(results) != n {
				return false
			}

			for i, r := range results {
				if r.ID != i+1 {
					return false
				}
			}

			return true
		},
		gen.IntRange(1, 64),
	))

	properties.TestingRun(t)
}

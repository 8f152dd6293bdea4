// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func finished(id, exitCode int, offset, d time.Duration) *Result {
	r := &Result{
		ID:        id,
		ExitCode:  exitCode,
		StartTime: epoch.Add(offset),
		EndTime:   epoch.Add(offset + d),
		State:     StateSucceeded,
	}

	if exitCode != 0 {
		r.State = StateFailed
		r.Err = ErrJobRuntime
	}

	return r
}

func TestSummarize_AllSucceeded(t *testing.T) {
	results := []*Result{
		finished(1, 0, 0, 2*time.Second),
		finished(2, 0, 10*time.Millisecond, 3500*time.Millisecond),
		finished(3, 0, 20*time.Millisecond, time.Second),
	}

	s := Summarize(results)

	assert.Equal(t, 3, s.NumJobs)
	assert.Equal(t, 3, s.Succeeded)
	assert.Equal(t, 0, s.Failed)
	require.True(t, s.HasStats())
	assert.InDelta(t, 2.1666, s.AvgDuration.Seconds(), 0.001)
	assert.Equal(t, time.Second, *s.MinDuration)
	assert.Equal(t, 3500*time.Millisecond, *s.MaxDuration)
	assert.GreaterOrEqual(t, s.TotalDuration, 3500*time.Millisecond)
	assert.Equal(t, 3510*time.Millisecond, s.TotalDuration)
	assert.Equal(t, epoch, s.FirstStart)
}

func TestSummarize_LaunchFailureExcluded(t *testing.T) {
	results := []*Result{
		finished(1, 0, 0, 2*time.Second),
		launchFailure(2, ErrCommandNotFound),
		finished(3, 0, 0, 4*time.Second),
	}

	s := Summarize(results)

	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 3*time.Second, *s.AvgDuration)
	assert.Equal(t, 2*time.Second, *s.MinDuration)
	assert.Equal(t, 4*time.Second, *s.MaxDuration)

	r2 := s.Results[1]
	assert.NotEqual(t, 0, r2.ExitCode)

	_, ok := r2.Duration()
	assert.False(t, ok)
}

func TestSummarize_NoSuccessHasNoStats(t *testing.T) {
	s := Summarize([]*Result{
		finished(1, 1, 0, time.Second),
		launchFailure(2, ErrCommandNotFound),
	})

	assert.False(t, s.HasStats())
	assert.Nil(t, s.AvgDuration)
	assert.Nil(t, s.MinDuration)
	assert.Nil(t, s.MaxDuration)
	assert.Equal(t, time.Second, s.TotalDuration, "failed jobs still count toward wall-clock span")
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.NumJobs)
	assert.Zero(t, s.TotalDuration)
	assert.True(t, s.FirstStart.IsZero())
	assert.False(t, s.HasStats())
}

func TestSummarize_OrdersByIDWithoutMutatingInput(t *testing.T) {
	in := []*Result{
		finished(3, 0, 0, time.Second),
		finished(1, 0, 0, time.Second),
		finished(2, 0, 0, time.Second),
	}

	s := Summarize(in)

	assert.Equal(t, []int{1, 2, 3}, []int{s.Results[0].ID, s.Results[1].ID, s.Results[2].ID})
	assert.Equal(t, 3, in[0].ID)
}

// genResults turns generated millisecond values into a result set. Exit code
// and start offset are derived from the value so one generator drives all three.
func genResults(ms []int64) []*Result {
	results := make([]*Result, len(ms))

	for i, v := range ms {
		exit := 0
		if v%3 == 0 {
			exit = 1
		}

		offset := time.Duration((v*7)%5000) * time.Millisecond
		results[i] = finished(i+1, exit, offset, time.Duration(v)*time.Millisecond)
	}

	return results
}

func TestSummarize_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("average is the mean of successful durations", prop.ForAll(
		func(ms []int64) bool {
			results := genResults(ms)
			s := Summarize(results)

			var (
				sum   float64
				count int
			)

			for _, r := range results {
				if r.ExitCode == 0 {
					d, _ := r.Duration()
					sum += float64(d)
					count++
				}
			}

			if count == 0 {
				return s.AvgDuration == nil && s.MinDuration == nil && s.MaxDuration == nil
			}

			return s.AvgDuration != nil && math.Abs(float64(*s.AvgDuration)-sum/float64(count)) <= 1
		},
		gen.SliceOf(gen.Int64Range(0, 10_000)),
	))

	properties.Property("total duration covers the longest success", prop.ForAll(
		func(ms []int64) bool {
			s := Summarize(genResults(ms))
			if s.MaxDuration == nil {
				return true
			}

			return s.TotalDuration >= *s.MaxDuration
		},
		gen.SliceOf(gen.Int64Range(0, 10_000)),
	))

	properties.Property("counts partition the results", prop.ForAll(
		func(ms []int64) bool {
			s := Summarize(genResults(ms))
			return s.Succeeded+s.Failed == s.NumJobs && s.NumJobs == len(ms)
		},
		gen.SliceOf(gen.Int64Range(0, 10_000)),
	))

	properties.TestingRun(t)
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"cmp"
	"slices"
	"time"
)

// Summary holds batch statistics.
//
// Average, minimum and maximum durations are computed over successful jobs only
// and are nil when there are none. TotalDuration is the wall-clock span from the
// earliest start to the latest end, not the sum of job durations.
type Summary struct {
	NumJobs       int
	Succeeded     int
	Failed        int
	TotalDuration time.Duration
	FirstStart    time.Time // Zero if no job has both timestamps
	LastEnd       time.Time // Zero if no job has both timestamps
	Results       []*Result // Ordered by id
	AvgDuration   *time.Duration
	MinDuration   *time.Duration
	MaxDuration   *time.Duration
}

// Summarize computes the batch statistics. The input is not modified.
func Summarize(results []*Result) *Summary {
	s := &Summary{
		NumJobs: len(results),
		Results: slices.Clone(results),
	}

	slices.SortStableFunc(s.Results, func(a, b *Result) int {
		return cmp.Compare(a.ID, b.ID)
	})

	var (
		sum   time.Duration
		count int
	)

	for _, r := range s.Results {
		d, ok := r.Duration()

		if ok {
			if s.FirstStart.IsZero() || r.StartTime.Before(s.FirstStart) {
				s.FirstStart = r.StartTime
			}

			if r.EndTime.After(s.LastEnd) {
				s.LastEnd = r.EndTime
			}
		}

		if !r.Successful() {
			s.Failed++
			continue
		}

		s.Succeeded++

		if !ok {
			continue
		}

		sum += d
		count++

		if s.MinDuration == nil || d < *s.MinDuration {
			s.MinDuration = &d
		}

		if s.MaxDuration == nil || d > *s.MaxDuration {
			s.MaxDuration = &d
		}
	}

	if count > 0 {
		avg := sum / time.Duration(count)
		s.AvgDuration = &avg
	}

	if !s.FirstStart.IsZero() {
		s.TotalDuration = max(s.LastEnd.Sub(s.FirstStart), 0)
	}

	return s
}

// HasStats reports whether duration statistics are available.
func (s *Summary) HasStats() bool {
	return s.AvgDuration != nil
}

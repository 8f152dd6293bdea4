// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// Collect waits for every handle and returns their results ordered by id.
//
// All handles are joined at once, so a result is taken as soon as its job is
// terminal regardless of the others. Each handle can be collected once; a
// second Collect over the same handle fails with ErrAlreadyCollected before any
// other handle is taken.
//
// If ctx is done first, the jobs still running are reported as failed with
// ErrJobAbandoned and the returned error wraps ctx.Err(). The result slice is
// complete in that case too.
func Collect(ctx context.Context, handles []*Handle) ([]*Result, error) {
	logger := ctxlog.Logger(ctx).With("component", "collector")

	for _, h := range handles {
		if h.isCollected() {
			return nil, fmt.Errorf("job %d: %w", h.ID(), ErrAlreadyCollected)
		}
	}

	results := make([]*Result, len(handles))

	var (
		g         errgroup.Group
		abandoned atomic.Int32
	)

	for i, h := range handles {
		g.Go(func() error {
			var (
				r   *Result
				err error
			)

			select {
			case <-h.Done():
				r, err = h.Take()
			case <-ctx.Done():
				r, err = h.abandon(ctx.Err())
				if err == nil && r.Abandoned() {
					abandoned.Add(1)
					logger.Warn("job abandoned", "jobID", h.ID())
				}
			}

			if err != nil {
				return fmt.Errorf("job %d: %w", h.ID(), err)
			}

			logger.Debug("collected", "jobID", r.ID, "exitCode", r.ExitCode)
			results[i] = r

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	slices.SortStableFunc(results, func(a, b *Result) int {
		return cmp.Compare(a.ID, b.ID)
	})

	if n := abandoned.Load(); n > 0 {
		return results, fmt.Errorf("%w: %d of %d jobs unfinished: %w", ErrJobAbandoned, n, len(handles), ctx.Err())
	}

	return results, nil
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"errors"
	"os"

	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
)

// ErrSecondSignal is the cancellation cause set by Watch.
var ErrSecondSignal = errors.New("second termination signal received")

// Watch reads signals until the second one arrives, then cancels with
// ErrSecondSignal. onFirst, if not nil, is called for the first signal.
// Watch returns when ctx is done or sigCh is closed.
func Watch(ctx context.Context, sigCh <-chan os.Signal, cancel context.CancelCauseFunc, onFirst func(os.Signal)) {
	logger := ctxlog.Logger(ctx).With("component", "signalbroker")
	seen := false

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if seen {
				logger.Warn("received second signal, stopping", "signal", sig.String())
				cancel(ErrSecondSignal)

				return
			}

			seen = true

			logger.Warn("received signal, jobs keep running; send again to stop waiting", "signal", sig.String())

			if onFirst != nil {
				onFirst(sig)
			}
		}
	}
}

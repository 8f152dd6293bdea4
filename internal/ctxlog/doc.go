// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The default logger writes to stderr through PrettyHandler, a human-readable console
// handler. The level is read from the environment variable named after the
// executable, e.g. FANOUT_LOG_LEVEL for the fanout binary. Accepted values are DEBUG,
// INFO, WARN and ERROR; anything else means WARN.
package ctxlog

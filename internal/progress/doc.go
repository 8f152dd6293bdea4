// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries job lifecycle events from the launcher to whoever is
// watching: the TUI, a debug log listener, or nothing at all.
package progress

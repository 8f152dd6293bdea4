// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a real-time terminal dashboard for a running batch. It
// shows a progress bar, one row per job with its status and timing, and the last
// output line of each running job.
//
// The dashboard is fed by progress events from the launcher and by monitor
// snapshots, so it never touches job processes or their results directly.
package tui

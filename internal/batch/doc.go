// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package batch launches N copies of a command as independent OS processes and
// follows them to completion.
//
// The flow is linear: a Launcher starts the jobs and hands back one Handle per
// job, Watch observes the handles and emits progress snapshots, Collect joins on
// all of them and returns one Result per job ordered by id, and Summarize turns
// the results into batch statistics.
//
// Job failures never escape as Go errors from the batch functions. A job that
// cannot start, exits non-zero, crashes or times out is reported through the
// Err field of its Result.
package batch

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package report persists batch results: one verbatim log file per job and one
// aggregate report in JSON or YAML. It also renders the console summary table
// and reloads saved reports.
package report

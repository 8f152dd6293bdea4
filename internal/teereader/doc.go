// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader captures everything read through an io.Reader, up to a byte
// limit, while remembering the last complete line for live status display.
package teereader

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"fmt"
	"time"
)

// FormatHMS renders d as hh:mm:ss, truncating fractions of a second.
// Negative durations render as 00:00:00. Hours are not capped at 99.
func FormatHMS(d time.Duration) string {
	if d < 0 {
		return "00:00:00"
	}

	secs := int64(d / time.Second)

	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

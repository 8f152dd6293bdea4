// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

// Code is an SGR parameter, e.g. a foreground colour or bold.
type Code int

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"

	csi      = "\033["
	sgrEnd   = "m"
	resetSeq = "\033[0m"
)

// Attributes.
const (
	Reset Code = iota
	Bold
	Faint
	Italic
	Underline
)

// Foreground colours.
const (
	FgBlack Code = iota + 30
	FgRed
	FgGreen
	FgYellow
	FgBlue
	FgMagenta
	FgCyan
	FgWhite
)

// Hi-intensity foreground colours.
const (
	FgHiBlack Code = iota + 90
	FgHiRed
	FgHiGreen
	FgHiYellow
	FgHiBlue
	FgHiMagenta
	FgHiCyan
	FgHiWhite
)

var enabled atomic.Bool

func init() {
	enabled.Store(isColorCapable())
}

// Enabled reports whether colour output is on.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled overrides terminal detection. It returns the previous setting so
// callers (mostly tests) can restore it.
func SetEnabled(v bool) bool {
	return enabled.Swap(v)
}

// ControlString returns the escape sequence for the given codes, regardless of
// whether colour is enabled.
func ControlString(codes ...Code) string {
	sb := strings.Builder{}
	sb.Grow(len(csi) + len(sgrEnd) + 4*len(codes))
	writeSGR(&sb, codes)

	return sb.String()
}

// Colorize wraps str in the given codes followed by a reset.
// It returns str unchanged when colour is disabled.
func Colorize(str string, codes ...Code) string {
	if !Enabled() || len(codes) == 0 {
		return str
	}

	sb := strings.Builder{}
	sb.Grow(len(str) + len(csi) + len(sgrEnd) + len(resetSeq) + 4*len(codes))
	writeSGR(&sb, codes)
	sb.WriteString(str)
	sb.WriteString(resetSeq)

	return sb.String()
}

// ColorizeNoReset is Colorize without the trailing reset.
func ColorizeNoReset(str string, codes ...Code) string {
	if !Enabled() || len(codes) == 0 {
		return str
	}

	sb := strings.Builder{}
	writeSGR(&sb, codes)
	sb.WriteString(str)

	return sb.String()
}

func writeSGR(sb *strings.Builder, codes []Code) {
	sb.WriteString(csi)

	for i, c := range codes {
		if i > 0 {
			sb.WriteByte(';')
		}

		sb.WriteString(strconv.Itoa(int(c)))
	}

	sb.WriteString(sgrEnd)
}

func isColorCapable() bool {
	if os.Getenv(NoColor) != "" {
		return false
	}

	if os.Getenv(ForceColor) != "" {
		return true
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}

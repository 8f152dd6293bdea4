// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
)

const (
	goosWindows          = "windows"
	commandSwitchWindows = "/C"
	commandSwitchUnix    = "-c"
	winSystem32          = "System32"
	cmdExe               = "cmd.exe"
	binSh                = "/bin/sh"
	winSystemRootEnv     = "SystemRoot"
)

// DefaultShell returns $SHELL, or /bin/sh. On Windows it is always cmd.exe.
func DefaultShell(ctx context.Context) string {
	if runtime.GOOS == goosWindows {
		systemRoot := os.Getenv(winSystemRootEnv)
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}

		return fmt.Sprintf(`%s\%s\%s`, systemRoot, winSystem32, cmdExe)
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		ctxlog.Debug(ctx, "using SHELL environment variable", "shell", shell)
		return shell
	}

	return binSh
}

// argv builds the argument vector for the process. With noShell the command is
// split on whitespace and the first field is resolved in PATH; otherwise the
// whole command line is passed to the shell.
// argv[0] is always an absolute or explicitly relative path usable by os.StartProcess.
func argv(ctx context.Context, command, shell string, noShell bool) ([]string, error) {
	if noShell {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return nil, ErrCommandNotFound
		}

		path, err := lookPath(fields[0])
		if err != nil {
			return nil, err
		}

		return slices.Concat([]string{path}, fields[1:]), nil
	}

	if shell == "" {
		shell = DefaultShell(ctx)
	}

	path, err := lookPath(shell)
	if err != nil {
		return nil, err
	}

	if isCmdExe(path) {
		return []string{path, commandSwitchWindows, command}, nil
	}

	return []string{path, commandSwitchUnix, command}, nil
}

func lookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Join(ErrCommandNotFound, err)
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path, nil
}

func isCmdExe(path string) bool {
	return strings.EqualFold(filepath.Base(path), cmdExe)
}

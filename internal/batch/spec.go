// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"maps"
	"path/filepath"
	"slices"
	"strconv"
)

const (
	// EnvJobID is set to the job's id in every job environment.
	EnvJobID = "FANOUT_JOB_ID"
	// EnvJobCount is set to the batch size in every job environment.
	EnvJobCount = "FANOUT_JOB_COUNT"
)

// utf8Env keeps interpreters and libc from mangling non-ASCII output.
// Callers may override any of these through Options.Env.
var utf8Env = map[string]string{
	"LC_ALL":           "C.UTF-8",
	"LANG":             "C.UTF-8",
	"PYTHONIOENCODING": "utf-8",
	"PYTHONUTF8":       "1",
}

// JobSpec describes one job. It is created at launch and never changed.
type JobSpec struct {
	ID      int               // 1..Count
	Count   int               // Number of jobs in the batch
	Command string            // Command line as given by the user
	Cwd     string            // Working directory of the process
	Env     map[string]string // Environment overrides, applied on top of the parent environment
}

func newJobSpec(id, count int, command, cwd string, isolate bool, env map[string]string) JobSpec {
	if isolate {
		cwd = filepath.Join(cwd, JobDirName(id))
	}

	e := maps.Clone(utf8Env)
	maps.Copy(e, env)
	e[EnvJobID] = strconv.Itoa(id)
	e[EnvJobCount] = strconv.Itoa(count)

	return JobSpec{
		ID:      id,
		Count:   count,
		Command: command,
		Cwd:     cwd,
		Env:     e,
	}
}

// JobDirName is the per-job directory name used with Options.IsolateWorkdirs.
func JobDirName(id int) string {
	return "job_" + strconv.Itoa(id)
}

// Environ returns base with the spec's overrides applied.
// Existing keys are replaced in place so every key appears once; new keys are
// appended in sorted order.
func (s JobSpec) Environ(base []string) []string {
	out := make([]string, 0, len(base)+len(s.Env))
	seen := make(map[string]struct{}, len(s.Env))

	for _, kv := range base {
		k, _, ok := cutEnv(kv)
		if !ok {
			out = append(out, kv)
			continue
		}

		if _, dup := seen[k]; dup {
			continue
		}

		if v, override := s.Env[k]; override {
			out = append(out, k+"="+v)
			seen[k] = struct{}{}

			continue
		}

		out = append(out, kv)
		seen[k] = struct{}{}
	}

	for _, k := range slices.Sorted(maps.Keys(s.Env)) {
		if _, ok := seen[k]; ok {
			continue
		}

		out = append(out, k+"="+s.Env[k])
	}

	return out
}

// cutEnv splits KEY=VALUE. Windows per-drive variables start with '=' so the
// search for the separator begins at the second byte.
func cutEnv(kv string) (string, string, bool) {
	if len(kv) == 0 {
		return "", "", false
	}

	for i := 1; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}

	return "", "", false
}

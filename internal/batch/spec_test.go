// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewJobSpec(t *testing.T) {
	s := newJobSpec(2, 5, "echo hi", "/work", false, map[string]string{"LC_ALL": "POSIX", "A": "b"})

	assert.Equal(t, 2, s.ID)
	assert.Equal(t, "/work", s.Cwd)
	assert.Equal(t, "POSIX", s.Env["LC_ALL"], "caller overrides win")
	assert.Equal(t, "C.UTF-8", s.Env["LANG"])
	assert.Equal(t, "utf-8", s.Env["PYTHONIOENCODING"])
	assert.Equal(t, "1", s.Env["PYTHONUTF8"])
	assert.Equal(t, "2", s.Env[EnvJobID])
	assert.Equal(t, "5", s.Env[EnvJobCount])
	assert.Equal(t, "b", s.Env["A"])
}

func TestNewJobSpec_Isolated(t *testing.T) {
	s := newJobSpec(7, 9, "true", "/work", true, nil)
	assert.Equal(t, filepath.Join("/work", "job_7"), s.Cwd)
}

func TestJobSpec_Environ(t *testing.T) {
	s := JobSpec{Env: map[string]string{"LANG": "C.UTF-8", "NEW_B": "2", "NEW_A": "1"}}
	base := []string{"PATH=/bin", "LANG=en_GB", "LANG=duplicate", "=C:=C:\\", "HOME=/root"}

	got := s.Environ(base)

	assert.Equal(t, []string{
		"PATH=/bin",
		"LANG=C.UTF-8",
		"=C:=C:\\",
		"HOME=/root",
		"NEW_A=1",
		"NEW_B=2",
	}, got)
}

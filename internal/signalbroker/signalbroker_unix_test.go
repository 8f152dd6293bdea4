// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package signalbroker

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	ch := New(context.Background(), syscall.SIGUSR1)
	defer Stop(ch)

	assert.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case s := <-ch:
		assert.Equal(t, syscall.SIGUSR1, s)
	case <-time.After(time.Second):
		t.Fatal("signal not delivered")
	}
}

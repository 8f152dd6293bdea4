// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastLineTeeReader_Lines(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		wantLast    string
		wantPartial string
	}{
		{name: "single line with newline", input: "hello world\n", wantLast: "hello world"},
		{name: "single line without newline", input: "hello world", wantPartial: "hello world"},
		{name: "empty", input: ""},
		{name: "just newline", input: "\n"},
		{name: "multiple lines", input: "one\ntwo\nthree\n", wantLast: "three"},
		{name: "trailing partial", input: "one\ntwo\nthr", wantLast: "two", wantPartial: "thr"},
		{name: "crlf", input: "one\r\ntwo\r\n", wantLast: "two"},
		{name: "non-ascii", input: "día\nnaïve ✓\n", wantLast: "naïve ✓"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lt := NewLastLineTeeReader(strings.NewReader(tc.input), 0)

			_, err := io.Copy(io.Discard, lt)
			require.NoError(t, err)

			assert.Equal(t, tc.input, string(lt.Bytes()))
			assert.Equal(t, tc.wantLast, lt.LastLine(0))
			assert.Equal(t, tc.wantPartial, lt.PartialLine())
		})
	}
}

func TestLastLineTeeReader_ChunkedReading(t *testing.T) {
	input := "first line\nsecond li" + "ne\nthird"
	lt := NewLastLineTeeReader(iotest.OneByteReader(strings.NewReader(input)), 0)

	_, err := io.Copy(io.Discard, lt)
	require.NoError(t, err)

	assert.Equal(t, "second line", lt.LastLine(0))
	assert.Equal(t, "third", lt.PartialLine())
}

func TestLastLineTeeReader_Limit(t *testing.T) {
	lt := NewLastLineTeeReader(strings.NewReader("0123456789\nabc\n"), 5)

	n, err := io.Copy(io.Discard, lt)
	require.NoError(t, err)

	assert.Equal(t, int64(15), n, "reads must pass through in full")
	assert.Equal(t, "01234", string(lt.Bytes()))
	assert.True(t, lt.Truncated())
	assert.Equal(t, int64(15), lt.Total())
	assert.Equal(t, "abc", lt.LastLine(0), "line tracking ignores the limit")
}

func TestLastLineTeeReader_LastLineTruncation(t *testing.T) {
	lt := NewLastLineTeeReader(strings.NewReader("a very long line of output\n"), 0)
	_, _ = io.Copy(io.Discard, lt)

	assert.Equal(t, "a very...", lt.LastLine(9))
	assert.Equal(t, "a very long line of output", lt.LastLine(100))
}

func TestLastLineTeeReader_Release(t *testing.T) {
	lt := NewLastLineTeeReader(strings.NewReader("data\n"), 0)
	_, _ = io.Copy(io.Discard, lt)

	assert.Equal(t, []byte("data\n"), lt.Release())
	assert.Nil(t, lt.Release(), "second release returns nothing")
	assert.Nil(t, lt.Bytes())
	assert.Equal(t, "data", lt.LastLine(0))
}

func TestLastLineTeeReader_Error(t *testing.T) {
	boom := errors.New("boom")
	lt := NewLastLineTeeReader(iotest.ErrReader(boom), 0)

	_, err := lt.Read(make([]byte, 8))
	require.ErrorIs(t, err, boom)
	assert.Empty(t, lt.Bytes())
}

func TestLastLineTeeReader_ConcurrentAccess(t *testing.T) {
	pr, pw := io.Pipe()
	lt := NewLastLineTeeReader(pr, 0)

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		for range 100 {
			_, _ = pw.Write([]byte("line\n"))
		}

		_ = pw.Close()
	}()

	go func() {
		defer wg.Done()

		for range 100 {
			_ = lt.LastLine(10)
			_ = lt.Total()
		}
	}()

	_, err := io.Copy(io.Discard, lt)
	require.NoError(t, err)
	wg.Wait()

	assert.Equal(t, int64(500), lt.Total())
	assert.Equal(t, "line", lt.LastLine(0))
}

func TestAppendBounded(t *testing.T) {
	big := make([]byte, maxPartialLine+10)
	big[len(big)-1] = 'z'

	out := appendBounded(nil, big)
	assert.Len(t, out, maxPartialLine)
	assert.Equal(t, byte('z'), out[len(out)-1])
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// maxPartialLine bounds the memory spent on a line that never ends.
const maxPartialLine = 64 * 1024

// LastLineTeeReader wraps an io.Reader, keeps a copy of the data read through it
// and tracks the last complete line. Reads always pass through in full; only the
// captured copy is subject to the limit. It is safe for concurrent use.
type LastLineTeeReader struct {
	reader    io.Reader
	limit     int64
	captured  *bytes.Buffer
	total     int64
	truncated bool
	lastLine  string
	partial   []byte
	mu        sync.RWMutex
}

// NewLastLineTeeReader wraps r. A limit <= 0 captures everything.
func NewLastLineTeeReader(r io.Reader, limit int64) *LastLineTeeReader {
	return &LastLineTeeReader{
		reader:   r,
		limit:    limit,
		captured: &bytes.Buffer{},
	}
}

// Read implements io.Reader.
func (lt *LastLineTeeReader) Read(p []byte) (int, error) {
	n, err := lt.reader.Read(p)
	if n > 0 {
		lt.mu.Lock()
		lt.capture(p[:n])
		lt.trackLines(p[:n])
		lt.mu.Unlock()
	}

	return n, err //nolint:wrapcheck
}

// capture must be called with the write lock held.
func (lt *LastLineTeeReader) capture(data []byte) {
	lt.total += int64(len(data))

	if lt.captured == nil {
		return
	}

	if lt.limit <= 0 {
		lt.captured.Write(data)
		return
	}

	room := lt.limit - int64(lt.captured.Len())
	if room <= 0 {
		lt.truncated = true
		return
	}

	if int64(len(data)) > room {
		data = data[:room]
		lt.truncated = true
	}

	lt.captured.Write(data)
}

// trackLines must be called with the write lock held.
func (lt *LastLineTeeReader) trackLines(data []byte) {
	idx := bytes.LastIndexByte(data, '\n')
	if idx < 0 {
		lt.partial = appendBounded(lt.partial, data)
		return
	}

	head := data[:idx]
	if prev := bytes.LastIndexByte(head, '\n'); prev >= 0 {
		lt.lastLine = string(head[prev+1:])
	} else {
		lt.lastLine = string(lt.partial) + string(head)
	}

	lt.lastLine = strings.TrimSuffix(lt.lastLine, "\r")
	lt.partial = appendBounded(lt.partial[:0], data[idx+1:])
}

func appendBounded(dst, src []byte) []byte {
	dst = append(dst, src...)
	if over := len(dst) - maxPartialLine; over > 0 {
		dst = append(dst[:0], dst[over:]...)
	}

	return dst
}

// LastLine returns the last complete line read so far. When maxLength > 3 and the
// line is longer, it is cut and suffixed with "...".
func (lt *LastLineTeeReader) LastLine(maxLength int) string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	line := lt.lastLine
	if maxLength > 3 && len(line) > maxLength {
		line = line[:maxLength-3] + "..."
	}

	return line
}

// PartialLine returns the data after the last newline.
func (lt *LastLineTeeReader) PartialLine() string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return string(lt.partial)
}

// Bytes returns a copy of the captured data.
func (lt *LastLineTeeReader) Bytes() []byte {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	if lt.captured == nil {
		return nil
	}

	return bytes.Clone(lt.captured.Bytes())
}

// Total returns the number of bytes read through the reader, captured or not.
func (lt *LastLineTeeReader) Total() int64 {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.total
}

// Truncated reports whether data was dropped because of the limit.
func (lt *LastLineTeeReader) Truncated() bool {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.truncated
}

// Release hands the captured data to the caller and stops capturing.
// Later calls return nil. Line tracking keeps working.
func (lt *LastLineTeeReader) Release() []byte {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	if lt.captured == nil {
		return nil
	}

	out := lt.captured.Bytes()
	lt.captured = nil

	return out
}

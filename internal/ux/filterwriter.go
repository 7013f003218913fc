// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package ux

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// LineFilter is a writer that diverts whole lines containing a marker into
// a list instead of forwarding them. Other lines pass through to the
// underlying writer. Partial lines are buffered until a newline or Flush.
type LineFilter struct {
	w      io.Writer
	marker []byte

	mu       sync.Mutex
	pending  []byte
	captured []string
}

// NewLineFilter returns a LineFilter that captures lines containing marker.
func NewLineFilter(w io.Writer, marker string) *LineFilter {
	return &LineFilter{w: w, marker: []byte(marker)}
}

func (lf *LineFilter) Write(p []byte) (int, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	lf.pending = append(lf.pending, p...)
	for {
		i := bytes.IndexByte(lf.pending, '\n')
		if i < 0 {
			break
		}
		line := lf.pending[:i+1]
		if err := lf.handle(line); err != nil {
			return len(p), err
		}
		lf.pending = lf.pending[i+1:]
	}
	return len(p), nil
}

// Flush handles any buffered partial line.
func (lf *LineFilter) Flush() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if len(lf.pending) == 0 {
		return nil
	}
	err := lf.handle(lf.pending)
	lf.pending = nil
	return err
}

// Captured returns the diverted lines without trailing newlines.
func (lf *LineFilter) Captured() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return append([]string(nil), lf.captured...)
}

func (lf *LineFilter) handle(line []byte) error {
	if bytes.Contains(line, lf.marker) {
		lf.captured = append(lf.captured, strings.TrimRight(string(line), "\r\n"))
		return nil
	}
	_, err := lf.w.Write(line)
	return err
}

// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package debug

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSetVerbosity(t *testing.T) {
	t.Setenv("NILLA_DEBUG", "")
	t.Cleanup(func() { SetLevel(slog.LevelWarn) })

	cases := []struct {
		count int
		quiet bool
		want  slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{3, false, LevelTrace},
		{7, false, LevelTrace},
		{2, true, slog.LevelError},
	}
	for _, tc := range cases {
		SetVerbosity(tc.count, tc.quiet)
		assert.Equal(t, tc.want, Level(), "count=%d quiet=%v", tc.count, tc.quiet)
	}
}

func TestLogWritesAtDebug(t *testing.T) {
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(slog.LevelWarn)
	})
	buf := &bytes.Buffer{}
	SetOutput(buf)

	SetLevel(slog.LevelInfo)
	Log("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetLevel(LevelTrace)
	Log("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "execid="+ExecutionID)

	buf.Reset()
	slog.Log(t.Context(), LevelTrace, "very verbose")
	assert.Contains(t, buf.String(), "level=TRACE")
}

func TestEarliestStackTrace(t *testing.T) {
	inner := errors.New("inner")
	outer := fmt.Errorf("outer: %w", errors.WithMessage(inner, "context"))
	assert.Equal(t, inner, EarliestStackTrace(outer))
	assert.Nil(t, EarliestStackTrace(fmt.Errorf("no stack")))
}

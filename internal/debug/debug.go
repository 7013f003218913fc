// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

// Package debug configures the process-wide [log/slog] logger and provides
// helpers for diagnosing failures.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"go.jetify.com/nilla/internal/envir"
)

// LevelTrace is more verbose than [slog.LevelDebug]. It is enabled with -vvv.
const LevelTrace = slog.LevelDebug - 4

// ExecutionID identifies a single nilla invocation in logs.
var ExecutionID = uuid.NewString()

var (
	level  = new(slog.LevelVar)
	output io.Writer = os.Stderr
)

func init() {
	level.Set(slog.LevelWarn)
	if envir.IsNillaDebugEnabled() {
		level.Set(slog.LevelDebug)
	}
	install()
}

func install() {
	h := slog.NewTextHandler(output, &slog.HandlerOptions{
		AddSource: level.Level() <= slog.LevelDebug,
		Level:     level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && a.Value.Any() == LevelTrace {
				a.Value = slog.StringValue("TRACE")
			}
			return a
		},
	})
	slog.SetDefault(slog.New(h).With("execid", ExecutionID))
}

// IsEnabled reports whether debug logging is on.
func IsEnabled() bool { return level.Level() <= slog.LevelDebug }

// Enable turns on debug logging.
func Enable() {
	SetLevel(slog.LevelDebug)
	slog.Debug("debug mode enabled")
}

// SetLevel changes the minimum level of the default logger.
func SetLevel(l slog.Level) {
	level.Set(l)
	install()
}

// SetVerbosity maps the -v count and the quiet flag to a log level. Quiet
// wins over any number of -v flags. NILLA_DEBUG keeps at least debug.
func SetVerbosity(count int, quiet bool) {
	l := slog.LevelWarn
	switch {
	case quiet:
		l = slog.LevelError
	case count == 1:
		l = slog.LevelInfo
	case count == 2:
		l = slog.LevelDebug
	case count >= 3:
		l = LevelTrace
	}
	if envir.IsNillaDebugEnabled() && l > slog.LevelDebug {
		l = slog.LevelDebug
	}
	SetLevel(l)
}

// Level returns the current minimum level.
func Level() slog.Level { return level.Level() }

// SetOutput redirects the default logger. Tests use it to capture logs.
func SetOutput(w io.Writer) {
	output = w
	install()
}

// Log writes a debug message using fmt-style formatting.
func Log(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...))
}

// Recover reports a panic as an error message. With debug logging enabled it
// re-panics so that the full goroutine trace is printed.
func Recover() {
	r := recover()
	if r == nil {
		return
	}
	if IsEnabled() {
		slog.Error("allowing panic because debug mode is enabled", "panic", r)
		panic(r)
	}
	fmt.Fprintln(os.Stderr, "Error:", r)
}

// EarliestStackTrace returns the innermost error in err's chain that carries
// a stack trace.
func EarliestStackTrace(err error) error {
	type pkgErrorsStackTracer interface{ StackTrace() errors.StackTrace }
	type frameStackTracer interface{ StackTrace() []runtime.Frame }

	var stErr error
	for err != nil {
		//nolint:errorlint
		switch err.(type) {
		case frameStackTracer, pkgErrorsStackTracer:
			stErr = err
		}
		err = errors.Unwrap(err)
	}
	return stErr
}

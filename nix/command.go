// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package nix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Cmd is an external command that invokes a Nix executable. It adds error
// messages that name the failing command, graceful cancellation and
// [log/slog] records for every start and exit. Create one with
// [Nix.Command] or [Nix.Tool].
//
// Most fields correspond to their [exec.Cmd] equivalent.
type Cmd struct {
	// Path is the absolute path to the executable.
	Path string

	// Args are the command line arguments, including the command name in
	// Args[0]. Each argument is formatted with [fmt.Sprint].
	Args Args

	Env    []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Logger defaults to [slog.Default].
	Logger *slog.Logger
	level  slog.Level

	execCmd *exec.Cmd
	err     error
	dur     time.Duration

	// stderrTail keeps the end of stderr when Stderr is set, so that
	// errors can still be explained after the output was streamed.
	stderrTail tailBuffer
}

func (c *Cmd) CombinedOutput(ctx context.Context) ([]byte, error) {
	defer c.logRunFunc(ctx)()
	if c.err != nil {
		return nil, c.err
	}

	start := time.Now()
	out, err := c.initExecCommand(ctx).CombinedOutput()
	c.dur = time.Since(start)

	c.err = c.error(ctx, err)
	return out, c.err
}

func (c *Cmd) Output(ctx context.Context) ([]byte, error) {
	defer c.logRunFunc(ctx)()
	if c.err != nil {
		return nil, c.err
	}

	start := time.Now()
	out, err := c.initExecCommand(ctx).Output()
	c.dur = time.Since(start)

	c.err = c.error(ctx, err)
	return out, c.err
}

func (c *Cmd) Run(ctx context.Context) error {
	defer c.logRunFunc(ctx)()
	if c.err != nil {
		return c.err
	}

	start := time.Now()
	err := c.initExecCommand(ctx).Run()
	c.dur = time.Since(start)

	c.err = c.error(ctx, err)
	return c.err
}

func (c *Cmd) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Any("args", c.Args),
	}
	if c.execCmd == nil {
		return slog.GroupValue(attrs...)
	}
	attrs = append(attrs, slog.String("path", c.execCmd.Path))

	var exitErr *exec.ExitError
	if errors.As(c.err, &exitErr) {
		if stderr := stderrExcerpt(exitErr.Stderr); stderr != "" {
			attrs = append(attrs, slog.String("stderr", stderr))
		}
	}
	if proc := c.execCmd.Process; proc != nil {
		attrs = append(attrs, slog.Int("pid", proc.Pid))
	}
	if state := c.execCmd.ProcessState; state != nil {
		if state.Exited() {
			attrs = append(attrs, slog.Int("code", state.ExitCode()))
		}
		if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			attrs = append(attrs, slog.String("signal", status.Signal().String()))
		}
	}
	if c.dur != 0 {
		attrs = append(attrs, slog.Duration("dur", c.dur))
	}
	return slog.GroupValue(attrs...)
}

// String returns c as a shell-quoted string.
func (c *Cmd) String() string {
	return c.Args.String()
}

func (c *Cmd) name() string {
	if len(c.Args) == 0 {
		return "nix"
	}
	return filepath.Base(fmt.Sprint(c.Args[0]))
}

func (c *Cmd) initExecCommand(ctx context.Context) *exec.Cmd {
	if c.execCmd != nil {
		return c.execCmd
	}

	c.execCmd = exec.CommandContext(ctx, c.Path)
	c.execCmd.Path = c.Path
	c.execCmd.Args = c.Args.StringSlice()
	c.execCmd.Env = c.Env
	c.execCmd.Dir = c.Dir
	c.execCmd.Stdin = c.Stdin
	c.execCmd.Stdout = c.Stdout
	if c.Stderr != nil {
		c.execCmd.Stderr = io.MultiWriter(c.Stderr, &c.stderrTail)
	}

	// Interrupt instead of killing so that Nix can release store locks and
	// clean up temporary roots.
	c.execCmd.Cancel = func() error {
		pid := c.execCmd.Process.Pid
		c.logger().DebugContext(ctx, "sending interrupt to nix process", "pid", pid)

		err := c.execCmd.Process.Signal(os.Interrupt)
		if errors.Is(err, os.ErrProcessDone) {
			return err
		}
		if err != nil {
			c.logger().DebugContext(ctx, "error interrupting nix process, attempting to kill",
				"err", err, "pid", pid)
			return c.execCmd.Process.Kill()
		}
		// Nix may still exit successfully after an interrupt. Returning
		// ErrProcessDone makes Wait report the real exit status.
		return os.ErrProcessDone
	}
	c.execCmd.WaitDelay = 15 * time.Second
	return c.execCmd
}

func (c *Cmd) error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	cmdErr := &cmdError{err: err}
	switch {
	case errors.Is(err, exec.ErrNotFound):
		cmdErr.msg = fmt.Sprintf("nix: %s not found in $PATH", c.name())
	case errors.Is(ctx.Err(), context.Canceled):
		cmdErr.msg = "nix: command canceled"
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		cmdErr.msg = "nix: command timed out"
	default:
		cmdErr.msg = "nix: command error"
	}
	cmdErr.msg += ": " + c.String()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := exitErr.Stderr
		if len(stderr) == 0 {
			stderr = c.stderrTail.Bytes()
		}
		if mismatch := parseHashMismatch(stderr); mismatch != nil {
			mismatch.err = cmdErr
			return mismatch
		}
		if stderr := stderrExcerpt(stderr); stderr != "" {
			cmdErr.msg += ": " + stderr
		}
		if exitErr.Exited() {
			cmdErr.msg += fmt.Sprintf(": exit code %d", exitErr.ExitCode())
			return cmdErr
		}
		if stat, ok := exitErr.Sys().(syscall.WaitStatus); ok && stat.Signaled() {
			cmdErr.msg += fmt.Sprintf(": exit due to signal %d (%[1]s)", stat.Signal())
			return cmdErr
		}
	}

	if !errors.Is(err, ctx.Err()) {
		cmdErr.msg += ": " + err.Error()
	}
	return cmdErr
}

// stderrExcerpt returns the last "error: " line of Nix's stderr, or all of
// stderr when there is no such line.
func stderrExcerpt(stderr []byte) string {
	stderr = bytes.TrimSpace(stderr)
	if len(stderr) == 0 {
		return ""
	}

	lines := bytes.Split(stderr, []byte("\n"))
	for _, line := range slices.Backward(lines) {
		after, found := bytes.CutPrefix(bytes.TrimSpace(line), []byte("error: "))
		if after = bytes.TrimSpace(after); found && len(after) != 0 {
			stderr = after
			break
		}
	}

	excerpt := string(stderr)
	if !strconv.CanBackquote(excerpt) {
		quoted := strconv.Quote(excerpt)
		excerpt = quoted[1 : len(quoted)-1]
	}
	return excerpt
}

func (c *Cmd) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// logRunFunc logs the start and exit of c.execCmd with the source location of
// the caller of CombinedOutput, Output or Run. It assumes that stack depth,
// so only those methods may call it.
func (c *Cmd) logRunFunc(ctx context.Context) func() {
	logger := c.logger()
	if !logger.Enabled(ctx, c.level) {
		return func() {}
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip Callers, logRunFunc, CombinedOutput/Output/Run
	r := slog.NewRecord(time.Now(), c.level, c.name()+" command starting", pcs[0])
	r.Add("cmd", c)
	_ = logger.Handler().Handle(ctx, r)

	return func() {
		r := slog.NewRecord(time.Now(), c.level, c.name()+" command exited", pcs[0])
		r.Add("cmd", c)
		_ = logger.Handler().Handle(ctx, r)
	}
}

// Args is a slice of [Cmd] arguments.
type Args []any

// StringSlice formats each argument using [fmt.Sprint].
func (a Args) StringSlice() []string {
	s := make([]string, len(a))
	for i := range a {
		s[i] = fmt.Sprint(a[i])
	}
	return s
}

// String returns the arguments as a shell command, quoting arguments that
// contain shell metacharacters.
func (a Args) String() string {
	sb := &strings.Builder{}
	for i, arg := range a {
		if i > 0 {
			sb.WriteByte(' ')
		}
		writeQuoted(sb, fmt.Sprint(arg))
	}
	return sb.String()
}

func writeQuoted(dst *strings.Builder, str string) {
	if !strings.ContainsAny(str, ";\"'()$|&><` \t\r\n\\#{~*?[=") {
		dst.WriteString(str)
		return
	}
	if !strings.Contains(str, "'") {
		dst.WriteByte('\'')
		dst.WriteString(str)
		dst.WriteByte('\'')
		return
	}

	dst.WriteByte('"')
	for _, r := range str {
		switch r {
		case '$', '`', '"', '\\':
			dst.WriteRune('\\')
		}
		dst.WriteRune(r)
	}
	dst.WriteByte('"')
}

const stderrTailSize = 32 << 10

// tailBuffer is a writer that only remembers the last stderrTailSize bytes.
type tailBuffer struct {
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - stderrTailSize; over > 0 {
		t.buf = slices.Clone(t.buf[over:])
	}
	return len(p), nil
}

func (t *tailBuffer) Bytes() []byte { return t.buf }

type cmdError struct {
	msg string
	err error
}

func (c *cmdError) Error() string {
	return c.msg
}

func (c *cmdError) Unwrap() error {
	return c.err
}

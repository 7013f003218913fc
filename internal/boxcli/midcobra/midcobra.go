// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

// Package midcobra runs a cobra command with middleware that sees the
// command before it runs and its error after.
package midcobra

import (
	"context"
	"errors"
	"os/exec"

	"github.com/spf13/cobra"

	"go.jetify.com/nilla/internal/boxcli/usererr"
	"go.jetify.com/nilla/internal/debug"
	"go.jetify.com/nilla/internal/ux"
)

type Executable interface {
	AddMiddleware(mids ...Middleware)
	Execute(ctx context.Context, args []string) int
}

type Middleware interface {
	preRun(cmd *cobra.Command, args []string)
	postRun(cmd *cobra.Command, args []string, runErr error)
}

func New(cmd *cobra.Command) Executable {
	return &midcobraExecutable{
		cmd:         cmd,
		middlewares: []Middleware{},
	}
}

type midcobraExecutable struct {
	cmd *cobra.Command

	middlewares []Middleware
}

var _ Executable = (*midcobraExecutable)(nil)

func (ex *midcobraExecutable) AddMiddleware(mids ...Middleware) {
	ex.middlewares = append(ex.middlewares, mids...)
}

// Execute runs the command with args and returns the process exit code.
func (ex *midcobraExecutable) Execute(ctx context.Context, args []string) int {
	ex.cmd.SetContext(ctx)
	// Global flags are parsed up front so that middleware can act on them
	// before the command runs. Subcommand flags are unknown to the root and
	// are ignored here.
	_ = ex.cmd.ParseFlags(args)

	for _, m := range ex.middlewares {
		m.preRun(ex.cmd, args)
	}

	ex.cmd.SetArgs(args)
	err := ex.cmd.Execute()

	// Post hooks run in reverse order, even when the command failed.
	for i := len(ex.middlewares) - 1; i >= 0; i-- {
		ex.middlewares[i].postRun(ex.cmd, args, err)
	}

	return ExitCode(ex.cmd, err)
}

// ExitCode returns the exit code for the result of a command. A process
// that nilla ran for the user passes its exit code through.
func ExitCode(cmd *cobra.Command, err error) int {
	if err == nil {
		return 0
	}
	// Order matters: a user exec error wraps an *exec.ExitError.
	var userExecErr *usererr.ExitError
	if errors.As(err, &userExecErr) {
		return userExecErr.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if !debug.IsEnabled() {
			ux.Ferror(cmd.ErrOrStderr(), "A nix command failed. "+
				"Run with NILLA_DEBUG=1 or -vv for the full command and its output.\n")
		}
		return exitErr.ExitCode()
	}
	return 1
}

// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package midcobra

import (
	"errors"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.jetify.com/nilla/internal/boxcli/usererr"
	"go.jetify.com/nilla/internal/debug"
	"go.jetify.com/nilla/internal/ux"
)

// DebugMiddleware enables debug logging with a hidden flag and reports
// command errors.
type DebugMiddleware struct {
	flag *pflag.Flag
}

var _ Middleware = (*DebugMiddleware)(nil)

func (d *DebugMiddleware) AttachToFlag(flags *pflag.FlagSet, flagName string) {
	flags.Bool(
		flagName,
		false,
		"Show debug logs and full stack traces on errors",
	)
	d.flag = flags.Lookup(flagName)
	d.flag.Hidden = true
}

func (d *DebugMiddleware) preRun(*cobra.Command, []string) {
	if d == nil || d.flag == nil {
		return
	}

	if d.flag.Changed {
		if enabled, _ := strconv.ParseBool(d.flag.Value.String()); enabled {
			debug.Enable()
		}
	}
}

func (d *DebugMiddleware) postRun(cmd *cobra.Command, _ []string, runErr error) {
	if runErr == nil {
		return
	}
	// The child already reported its own failure.
	var userExecErr *usererr.ExitError
	if errors.As(runErr, &userExecErr) {
		return
	}

	if userErr, hasUserErr := usererr.Extract(runErr); hasUserErr {
		if usererr.IsWarning(userErr) {
			ux.Fwarning(cmd.ErrOrStderr(), "%s\n", runErr.Error())
			return
		}
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "\nError: %s\n\n", userErr.Error())
	} else {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "Error: %v\n\n", runErr)
	}

	st := debug.EarliestStackTrace(runErr)
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		slog.Error("command error", "stderr", string(exitErr.Stderr), "stack", st)
		return
	}
	slog.Debug("command error", "stack", st)
}

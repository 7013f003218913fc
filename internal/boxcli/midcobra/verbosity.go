// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package midcobra

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.jetify.com/nilla/internal/debug"
)

// VerbosityMiddleware sets the log level from a repeatable verbose flag and
// a quiet flag.
type VerbosityMiddleware struct {
	verbose int
	quiet   bool
}

var _ Middleware = (*VerbosityMiddleware)(nil)

func (v *VerbosityMiddleware) AttachToFlags(flags *pflag.FlagSet) {
	flags.CountVarP(&v.verbose, "verbose", "v",
		"Increase log verbosity (-v info, -vv debug, -vvv trace)")
	flags.BoolVarP(&v.quiet, "quiet", "q", false, "Only log errors")
}

func (v *VerbosityMiddleware) preRun(*cobra.Command, []string) {
	debug.SetVerbosity(v.verbose, v.quiet)
}

func (*VerbosityMiddleware) postRun(*cobra.Command, []string, error) {}

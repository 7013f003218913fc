// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package boxcli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"go.jetify.com/nilla/internal/debug"
	"go.jetify.com/nilla/internal/nilla"
	"go.jetify.com/nilla/internal/ux/stepper"
	"go.jetify.com/nilla/nix"
)

type buildCmdFlags struct {
	system        string
	noLink        bool
	printOutPaths bool
}

func buildCmd() *cobra.Command {
	flags := buildCmdFlags{}
	command := &cobra.Command{
		Use:   "build [name]",
		Short: "Build a package from a Nilla project",
		Long: heredoc.Doc(`
			Build a package from a Nilla project. The name defaults to "default".
			A name containing a dot is used as a full attribute path, such as
			systems.nixos.mysystem.result.
		`),
		Example: heredoc.Doc(`
			Build a package from a local Nilla project:
			  nilla build mypackage

			Build a package from a Nilla project in a tarball:
			  nilla build mypackage --project https://example.com/myproject.tar.gz
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildCmd(cmd, args, flags)
		},
	}
	command.Flags().StringVar(&flags.system, "system", "", "System to build for, such as x86_64-linux")
	command.Flags().BoolVar(&flags.noLink, "no-link", false, "Don't create a result symlink")
	command.Flags().BoolVar(&flags.printOutPaths, "print-out-paths", false, "Print the output paths")
	return command
}

func runBuildCmd(cmd *cobra.Command, args []string, flags buildCmdFlags) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	system, err := s.system(ctx, flags.system)
	if err != nil {
		return err
	}

	attr := nilla.PackageAttr(lo.FirstOrEmpty(args), system)
	if err := s.project.MustExist(ctx, attr); err != nil {
		return err
	}
	paths, err := buildAttr(cmd, s, attr, nix.BuildOpts{Link: !flags.noLink, System: system})
	if err != nil {
		return err
	}

	if flags.printOutPaths {
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
	}
	return nil
}

// buildAttr builds attr from the project's manifest. The build log is shown
// at info verbosity and above; otherwise a spinner shows progress.
func buildAttr(cmd *cobra.Command, s *session, attr string, opts nix.BuildOpts) ([]string, error) {
	kind := nilla.KindOf(attr)
	slog.Info("building", "kind", kind.Type, "name", kind.Name, "attr", attr)

	if debug.Level() <= slog.LevelInfo {
		opts.Stderr = cmd.ErrOrStderr()
		return s.nix.Build(cmd.Context(), s.project.Entry(), attr, opts)
	}

	opts.Stderr = io.Discard
	step := stepper.Start(cmd.ErrOrStderr(), "Building %s", kind)
	paths, err := s.nix.Build(cmd.Context(), s.project.Entry(), attr, opts)
	if err != nil {
		step.Fail("Failed to build %s", kind)
		return nil, err
	}
	step.Success("Built %s", kind)
	return paths, nil
}

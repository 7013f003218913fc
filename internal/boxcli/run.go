// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package boxcli

import (
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"go.jetify.com/nilla/internal/boxcli/usererr"
	"go.jetify.com/nilla/internal/nilla"
	"go.jetify.com/nilla/nix"
)

type runCmdFlags struct {
	system string
}

func runCmd() *cobra.Command {
	flags := runCmdFlags{}
	command := &cobra.Command{
		Use:   "run [name] [-- <args>...]",
		Short: "Run a package's main program",
		Long: heredoc.Doc(`
			Build a package and run its main program. The program is the
			package's meta.mainProgram, or the package name if that is unset.
			Everything after "--" is passed to the program.
		`),
		Example: heredoc.Doc(`
			Run the default package of a Nilla project on GitHub:
			  nilla run --project github:myuser/myrepo

			Pass arguments to the program:
			  nilla run mypackage -- --my-arg
		`),
		Args: func(cmd *cobra.Command, args []string) error {
			if name, _ := splitDashArgs(cmd, args); len(name) > 1 {
				return usererr.New("Only one package may be run at once. Pass program arguments after \"--\".")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunCmd(cmd, args, flags)
		},
	}
	command.Flags().StringVar(&flags.system, "system", "", "System to build for, such as x86_64-linux")
	return command
}

func runRunCmd(cmd *cobra.Command, args []string, flags runCmdFlags) error {
	nameArgs, progArgs := splitDashArgs(cmd, args)
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	system, err := s.system(ctx, flags.system)
	if err != nil {
		return err
	}

	name := lo.CoalesceOrEmpty(lo.FirstOrEmpty(nameArgs), nilla.DefaultName)
	attr := nilla.PackageAttr(name, system)
	if err := s.project.MustExist(ctx, attr); err != nil {
		return err
	}
	paths, err := buildAttr(cmd, s, attr, nix.BuildOpts{System: system})
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return usererr.New("Package %s has no outputs.", name)
	}

	main, err := s.project.MainProgram(ctx, attr, nilla.KindOf(attr).Name)
	if err != nil {
		return err
	}
	bin := filepath.Join(paths[0], "bin", main)
	slog.Info("running package", "name", name, "bin", bin, "args", progArgs)

	prog := exec.CommandContext(ctx, bin, progArgs...)
	prog.Stdin = cmd.InOrStdin()
	prog.Stdout = cmd.OutOrStdout()
	prog.Stderr = cmd.ErrOrStderr()
	if err := prog.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return usererr.WithUserMessage(err, "Package %s has no program bin/%s.", name, main)
		}
		return usererr.NewExecError(errors.WithStack(err))
	}
	return nil
}

// splitDashArgs splits args at "--".
func splitDashArgs(cmd *cobra.Command, args []string) (before, after []string) {
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		return args[:dash], args[dash:]
	}
	return args, nil
}

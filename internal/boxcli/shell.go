// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package boxcli

import (
	"log/slog"
	"os"

	"al.essio.dev/pkg/shellescape"
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"go.jetify.com/nilla/internal/boxcli/usererr"
	"go.jetify.com/nilla/internal/envir"
	"go.jetify.com/nilla/internal/nilla"
	"go.jetify.com/nilla/nix"
)

type shellCmdFlags struct {
	system  string
	command string
}

func shellCmd() *cobra.Command {
	flags := shellCmdFlags{}
	command := &cobra.Command{
		Use:   "shell [name] [-- <cmd>...]",
		Short: "Start a development shell from a Nilla project",
		Long: heredoc.Doc(`
			Start a development shell from a Nilla project. The name defaults to
			"default". The shell runs $SHELL unless a command is given with
			--command or after "--", in which case the command runs in the
			shell's environment and the shell exits.
		`),
		Example: heredoc.Doc(`
			Start the default shell of a Nilla project on GitHub:
			  nilla shell --project github:myuser/myrepo

			Run a command in a specific shell:
			  nilla shell myshell -- go test ./...
		`),
		Args: func(cmd *cobra.Command, args []string) error {
			name, rest := splitDashArgs(cmd, args)
			if len(name) > 1 {
				return usererr.New("Only one shell may be started at once. Pass a command after \"--\".")
			}
			if len(rest) > 0 && flags.command != "" {
				return usererr.New("Use either --command or \"--\", not both.")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShellCmd(cmd, args, flags)
		},
	}
	command.Flags().StringVar(&flags.system, "system", "", "System of the shell, such as x86_64-linux")
	command.Flags().StringVarP(&flags.command, "command", "c", "", "Command to run in the shell")
	return command
}

func runShellCmd(cmd *cobra.Command, args []string, flags shellCmdFlags) error {
	nameArgs, cmdArgs := splitDashArgs(cmd, args)
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	system, err := s.system(ctx, flags.system)
	if err != nil {
		return err
	}

	attr := nilla.ShellAttr(lo.FirstOrEmpty(nameArgs), system)
	if err := s.project.MustExist(ctx, attr); err != nil {
		return err
	}

	shell := s.nix.Shell(s.project.Entry(), attr, nix.ShellOpts{
		System:  system,
		Command: shellCommand(flags.command, cmdArgs),
	})
	shell.Stdin = cmd.InOrStdin()
	shell.Stdout = cmd.OutOrStdout()
	shell.Stderr = cmd.ErrOrStderr()
	slog.Info("entering shell", "attr", attr)
	return usererr.NewExecError(shell.Run(ctx))
}

// shellCommand returns the command for nix-shell to run: the --command
// value, the quoted arguments after "--", or the user's $SHELL.
func shellCommand(flagValue string, args []string) string {
	switch {
	case flagValue != "":
		return flagValue
	case len(args) > 0:
		return shellescape.QuoteCommand(args)
	}
	return os.Getenv(envir.Shell)
}

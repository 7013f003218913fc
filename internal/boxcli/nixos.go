// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package boxcli

import (
	"fmt"
	"os"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"go.jetify.com/nilla/internal/boxcli/usererr"
	"go.jetify.com/nilla/internal/nilla"
	"go.jetify.com/nilla/internal/ux"
)

// nixosRebuild is the program that builds and activates NixOS systems.
const nixosRebuild = "nixos-rebuild-ng"

type nixosCmdFlags struct {
	dryRun bool
}

var nixosSubcommands = []struct {
	use, short, example string
}{
	{"switch", "Build and switch to a NixOS system", "nilla nixos switch"},
	{"build", "Build a NixOS system", "nilla nixos build"},
	{"build-vm", "Build a NixOS system VM", "nilla nixos build-vm --project github:myuser/myrepo"},
	{"boot", "Add a boot entry for a NixOS system", "nilla nixos boot mysystem"},
	{"test", "Activate a NixOS system temporarily", "nilla nixos test"},
}

func nixosCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "nixos",
		Short: "Manage a NixOS system in a Nilla project",
		Long: heredoc.Doc(`
			Manage a NixOS system in a Nilla project. The system name defaults to
			this machine's host name and selects systems.nixos.<name>.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	for _, sub := range nixosSubcommands {
		command.AddCommand(nixosSubCmd(sub.use, sub.short, sub.example))
	}
	return command
}

func nixosSubCmd(action, short, example string) *cobra.Command {
	flags := nixosCmdFlags{}
	command := &cobra.Command{
		Use:     action + " [name]",
		Short:   short,
		Example: "  " + example,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNixosCmd(cmd, action, args, flags)
		},
	}
	command.Flags().BoolVar(&flags.dryRun, "dry-run", false,
		"Print the "+nixosRebuild+" command instead of running it")
	return command
}

func runNixosCmd(cmd *cobra.Command, action string, args []string, flags nixosCmdFlags) error {
	name, err := systemName(args)
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	attr := nilla.SystemAttr(name)
	if err := s.project.MustExist(ctx, attr); err != nil {
		return err
	}

	rebuild := s.nix.Tool(nixosRebuild, action,
		"--file", s.project.Entry(),
		"--attr", attr,
		"--no-reexec",
	)
	if flags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), shellescape.QuoteCommand(rebuild.Args.StringSlice()))
		return nil
	}

	warnings := ux.NewLineFilter(cmd.ErrOrStderr(), "warning:")
	rebuild.Stdin = cmd.InOrStdin()
	rebuild.Stdout = cmd.OutOrStdout()
	rebuild.Stderr = warnings

	ux.Finfo(cmd.ErrOrStderr(), "Running %s %s for %s\n", nixosRebuild, action, name)
	err = rebuild.Run(ctx)
	if flushErr := warnings.Flush(); flushErr != nil && err == nil {
		err = errors.WithStack(flushErr)
	}
	if err != nil {
		ux.Ferror(cmd.ErrOrStderr(), "%s %s failed\n", nixosRebuild, action)
		return usererr.NewExecError(err)
	}

	ux.Fsuccess(cmd.ErrOrStderr(), "Complete!\n")
	for _, w := range warnings.Captured() {
		_, msg, _ := strings.Cut(w, "warning:")
		ux.Fwarning(cmd.ErrOrStderr(), "%s\n", strings.TrimSpace(msg))
	}
	return nil
}

// systemName returns the system named in args, or the host name.
func systemName(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	host, err := os.Hostname()
	if err != nil {
		return "", usererr.WithUserMessage(err, "Could not determine the host name. Name the system to manage.")
	}
	return host, nil
}

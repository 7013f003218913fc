// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package boxcli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"go.jetify.com/nilla/internal/boxcli/midcobra"
	"go.jetify.com/nilla/internal/build"
	"go.jetify.com/nilla/internal/config"
	"go.jetify.com/nilla/internal/debug"
)

// Command groups shown in help.
const (
	coreGroup   = "core"
	pluginGroup = "plugins"
)

func RootCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "nilla",
		Short: "Build, run and develop Nilla projects",
		Long: heredoc.Doc(`
			Build, run and develop Nilla projects.

			Every command operates on the project named by --project, which is
			either a local path or a remote source:

			  ./dir, /dir, ~/dir   nearest directory at or above dir with a nilla.nix
			  path:dir             exactly dir
			  git:<url>            ?rev=, ?ref=, ?submodules=true, ?dir=
			  github:owner/repo    ?rev=, ?dir=, ?host=
			  gitlab:owner/repo    ?rev=, ?dir=, ?host=
			  tarball:<host/path>  or an http(s) URL to a tarball
		`),
		Example: heredoc.Doc(`
			Run a package from a local Nilla project:
			  nilla run mypackage

			Build a package from a Nilla project on GitHub:
			  nilla build mypackage --project github:myuser/myrepo

			Start a development shell from a project in another directory:
			  nilla shell myshell --project ~/myproject
		`),
		Version: build.Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		// Global flags are parsed before the subcommand is known, so its
		// flags must not stop that parse.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	}
	command.AddGroup(
		&cobra.Group{ID: coreGroup, Title: "Commands:"},
		&cobra.Group{ID: pluginGroup, Title: "Plugins:"},
	)

	for _, sub := range []*cobra.Command{
		buildCmd(),
		nixosCmd(),
		pluginsCmd(),
		resolveCmd(),
		runCmd(),
		shellCmd(),
		showCmd(),
		versionCmd(),
	} {
		sub.GroupID = coreGroup
		command.AddCommand(sub)
	}
	addPluginCmds(command)

	// Register the "all" command to list all commands, including hidden ones.
	command.AddCommand(&cobra.Command{
		Use:    "all",
		Short:  "List all commands, including hidden ones",
		Hidden: true,
		Run: func(cmd *cobra.Command, args []string) {
			listAllCommands(cmd.OutOrStdout(), command, "")
		},
	})

	command.PersistentFlags().StringP(
		"project", "p", config.DefaultProject, "The Nilla project to use (a path or a source URI)")
	command.PersistentFlags().Bool(
		"show-eval-commands", false, "Log every nix command that is run")

	return command
}

func Execute(ctx context.Context, args []string) int {
	defer debug.Recover()

	root := RootCmd()
	verbosity := &midcobra.VerbosityMiddleware{}
	verbosity.AttachToFlags(root.PersistentFlags())
	debugMiddleware := &midcobra.DebugMiddleware{}
	debugMiddleware.AttachToFlag(root.PersistentFlags(), "debug")
	traceMiddleware := &midcobra.TraceMiddleware{}
	traceMiddleware.AttachToFlag(root.PersistentFlags(), "trace")

	exe := midcobra.New(root)
	exe.AddMiddleware(traceMiddleware)
	// Verbosity runs first so that --debug can override it.
	exe.AddMiddleware(verbosity)
	exe.AddMiddleware(debugMiddleware)
	return exe.Execute(ctx, args)
}

func Main() {
	os.Exit(Execute(context.Background(), os.Args[1:]))
}

func listAllCommands(w io.Writer, cmd *cobra.Command, indent string) {
	fmt.Fprintf(w, "%s%-20s%s\n", indent, cmd.Use, cmd.Short)
	for _, childCmd := range cmd.Commands() {
		listAllCommands(w, childCmd, indent+"\t")
	}
}

// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package boxcli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"go.jetify.com/nilla/internal/boxcli/usererr"
	"go.jetify.com/nilla/internal/envir"
	"go.jetify.com/nilla/internal/plugin"
)

func pluginsCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "plugins",
		Short: "Manage nilla plugins",
		Long: heredoc.Doc(`
			Plugins are executables named nilla-<name> in $PATH. They run as
			"nilla <name> [args...]".
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	command.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the plugins found in $PATH",
		Args:  cobra.NoArgs,
		RunE:  runPluginsListCmd,
	})
	command.AddCommand(&cobra.Command{
		Use:   "info <name>",
		Short: "Show a plugin's version, usage and commands",
		Args:  cobra.ExactArgs(1),
		RunE:  runPluginsInfoCmd,
	})
	return command
}

func runPluginsInfoCmd(cmd *cobra.Command, args []string) error {
	p, ok := plugin.Find(args[0])
	if !ok {
		return usererr.New("No plugin named %s found in PATH. Plugins are executables named %s%[1]s.",
			args[0], envir.NillaPluginPrefix)
	}
	md := plugin.Probe(cmd.Context(), p)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:    %s\n", p.Name)
	fmt.Fprintf(out, "Path:    %s\n", p.Path)
	fmt.Fprintf(out, "Version: %s\n", lo.CoalesceOrEmpty(md.Version, "unknown"))
	if md.Usage != "" {
		fmt.Fprintf(out, "%s\n", md.Usage)
	}
	if len(md.Commands) > 0 {
		fmt.Fprintln(out, "\nCommands:")
		for _, c := range md.Commands {
			fmt.Fprintf(out, "  %-12s %s\n", c.Name, c.Description)
		}
	}
	if len(md.Examples) > 0 {
		fmt.Fprintln(out, "\nExamples:")
		for _, e := range md.Examples {
			fmt.Fprintf(out, "  %s\n", e)
		}
	}
	return nil
}

func runPluginsListCmd(cmd *cobra.Command, _ []string) error {
	plugins := plugin.Discover(os.Getenv(envir.Path))
	out := cmd.OutOrStdout()
	if len(plugins) == 0 {
		fmt.Fprintln(out, "No plugins found in PATH.")
		return nil
	}

	metadata := plugin.ProbeAll(cmd.Context(), plugins)
	fmt.Fprintf(out, "Found %d plugin(s):\n\n", len(plugins))
	table := tablewriter.NewWriter(out)
	table.Header("Name", "Path", "Version", "Completions")
	for i, p := range plugins {
		md := metadata[i]
		row := []string{
			p.Name,
			p.Path,
			lo.CoalesceOrEmpty(md.Version, "unknown"),
			lo.Ternary(md.SupportsCompletions, "yes", "no"),
		}
		if err := table.Append(row); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(table.Render())
}

// addPluginCmds adds a command for every plugin in $PATH that doesn't
// shadow a built-in command.
func addPluginCmds(root *cobra.Command) {
	builtin := lo.FlatMap(root.Commands(), func(c *cobra.Command, _ int) []string {
		return append([]string{c.Name()}, c.Aliases...)
	})
	builtin = append(builtin, "help", "completion")

	for _, p := range plugin.Discover(os.Getenv(envir.Path)) {
		if lo.Contains(builtin, p.Name) {
			slog.Debug("plugin shadowed by built-in command", "plugin", p.Name, "path", p.Path)
			continue
		}
		root.AddCommand(pluginCmd(p))
	}
}

func pluginCmd(p plugin.Plugin) *cobra.Command {
	return &cobra.Command{
		Use:                p.Name,
		Short:              "Plugin at " + p.Path,
		GroupID:            pluginGroup,
		DisableFlagParsing: true,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveDefault
			}
			md := plugin.Probe(cmd.Context(), p)
			return lo.Map(md.Commands, func(c plugin.CommandInfo, _ int) cobra.Completion {
				return cobra.CompletionWithDesc(c.Name, c.Description)
			}), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlugin(cmd, p, args)
		},
	}
}

// runPlugin runs p with args. Help output is rewritten so that it refers to
// "nilla <name>" instead of the executable's own name.
func runPlugin(cmd *cobra.Command, p plugin.Plugin, args []string) error {
	slog.Debug("running plugin", "name", p.Name, "path", p.Path, "args", args)
	c := p.Command(cmd.Context(), args...)
	c.Stdin = cmd.InOrStdin()

	if !lo.ContainsBy(args, isHelpFlag) {
		c.Stdout = cmd.OutOrStdout()
		c.Stderr = cmd.ErrOrStderr()
		return usererr.NewExecError(errors.WithStack(c.Run()))
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	err := c.Run()
	rename := strings.NewReplacer(envir.NillaPluginPrefix+p.Name, "nilla "+p.Name)
	_, _ = rename.WriteString(cmd.OutOrStdout(), stdout.String())
	_, _ = rename.WriteString(cmd.ErrOrStderr(), stderr.String())
	return usererr.NewExecError(errors.WithStack(err))
}

func isHelpFlag(arg string) bool {
	return arg == "--help" || arg == "-h"
}

// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package boxcli

import (
	"encoding/json"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type resolveCmdFlags struct {
	json bool
}

func resolveCmd() *cobra.Command {
	flags := resolveCmdFlags{}
	command := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the project and print where it was found",
		Long: heredoc.Doc(`
			Resolve the project named by --project, fetching it if it is remote,
			and print the source, revision and local path that were used.
			Symbolic revisions such as default branches are pinned to commits.
		`),
		Example: heredoc.Doc(`
			  nilla resolve --project github:myuser/myrepo
			  nilla resolve --json
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolveCmd(cmd, flags)
		},
	}
	command.Flags().BoolVar(&flags.json, "json", false, "Print the result as JSON")
	return command
}

func runResolveCmd(cmd *cobra.Command, flags resolveCmdFlags) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	resolved, err := resolveProject(cmd, cfg, cfg.Nix())
	if err != nil {
		return err
	}

	if flags.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return errors.WithStack(enc.Encode(resolved))
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Field", "Value")
	for _, field := range resolved.Fields() {
		if err := table.Append(field[:]); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(table.Render())
}

// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package boxcli

import (
	"fmt"
	"log/slog"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"go.jetify.com/nilla/internal/ux"
)

func showCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "show [name]",
		Short: "Show information about a Nilla project",
		Long: heredoc.Doc(`
			Show the information a Nilla project provides about its attributes,
			such as the packages, shells and systems it defines. Without a name,
			every attribute the project explains is shown.
		`),
		Example: heredoc.Doc(`
			Show all information about a local Nilla project:
			  nilla show

			Show the packages of a Nilla project on GitHub:
			  nilla show packages --project github:myuser/myrepo
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: runShowCmd,
	}
	return command
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	names := args
	if len(names) == 0 {
		if names, err = s.project.Names(ctx); err != nil {
			return err
		}
		slog.Debug("showing project attributes", "names", names)
	} else {
		ok, err := s.project.HasExplanation(ctx, names[0])
		if err != nil {
			return err
		}
		if !ok {
			ux.Finfo(cmd.ErrOrStderr(), "No information available for %s\n", names[0])
			return nil
		}
	}

	fmt.Fprintln(out)
	for _, name := range names {
		entry, err := s.project.Explain(ctx, name)
		if err != nil {
			return err
		}
		if entry == nil {
			slog.Debug("attribute has no explanation", "name", name)
			continue
		}
		if err := entry.Render(out); err != nil {
			return err
		}
	}
	return nil
}

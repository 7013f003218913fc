// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package boxcli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"go.jetify.com/nilla/internal/boxcli/usererr"
	"go.jetify.com/nilla/internal/config"
	"go.jetify.com/nilla/internal/fetcher"
	"go.jetify.com/nilla/internal/nilla"
	"go.jetify.com/nilla/internal/project"
	"go.jetify.com/nilla/internal/ux/stepper"
	"go.jetify.com/nilla/nix"
)

// session holds what a command that operates on a project needs.
type session struct {
	cfg     *config.Config
	nix     *nix.Nix
	project *nilla.Project
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, usererr.WithUserMessage(err, "Invalid nilla configuration.")
	}
	return cfg, nil
}

// openSession resolves the --project reference and opens its manifest.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	n := cfg.Nix()
	resolved, err := resolveProject(cmd, cfg, n)
	if err != nil {
		return nil, err
	}
	p, err := nilla.Open(resolved, n)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, nix: n, project: p}, nil
}

// resolveProject resolves the configured project reference. Remote sources
// show progress while they are fetched.
func resolveProject(cmd *cobra.Command, cfg *config.Config, n *nix.Nix) (*project.ResolvedProject, error) {
	ref := cfg.Project
	t, err := project.Classify(ref)
	if err != nil {
		return nil, usererr.WithUserMessage(err, "Invalid project %s.", ref)
	}

	resolver := &project.Resolver{
		Forge:   cfg.ForgeClient(),
		Fetcher: &fetcher.Fetcher{Store: n},
	}
	var step *stepper.Stepper
	if t.Source != project.SourcePath {
		step = stepper.Start(cmd.ErrOrStderr(), "Fetching project %s", ref)
	}
	resolved, err := resolver.Resolve(cmd.Context(), ref)
	if step != nil {
		if err != nil {
			step.Fail("Failed to fetch project %s", ref)
		} else {
			step.Success("Fetched project %s", ref)
		}
	}
	if err != nil {
		return nil, usererr.WithUserMessage(err, "Could not resolve project %s.", ref)
	}
	slog.Debug("resolved project", "ref", ref, "source", resolved.Source, "path", resolved.Path)
	return resolved, nil
}

// system returns flagValue if it is set, otherwise the current system.
func (s *session) system(ctx context.Context, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	system, err := s.nix.System(ctx)
	if err != nil {
		return "", usererr.WithUserMessage(err, "Could not determine the current Nix system. Use --system to set it.")
	}
	return system, nil
}

// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package nix

import (
	"context"
	"io"
	"strings"
)

type BuildOpts struct {
	// Link creates ./result symlinks to the outputs.
	Link bool

	// System overrides the platform to build for.
	System string

	// Stderr receives the build log. It is discarded when nil.
	Stderr io.Writer
}

// Build builds attr from a Nix file and returns the output paths.
func (n *Nix) Build(ctx context.Context, file, attr string, opts BuildOpts) ([]string, error) {
	args := Args{"build", "--print-out-paths"}
	if !opts.Link {
		args = append(args, "--no-link")
	}
	args = append(args, "-f", file)
	if opts.System != "" {
		args = append(args, "--system", opts.System)
	}
	args = append(args, attr)

	cmd := n.Command(args...)
	cmd.Stderr = opts.Stderr
	out, err := cmd.Output(ctx)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

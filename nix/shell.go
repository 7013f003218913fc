// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package nix

type ShellOpts struct {
	System string

	// Command runs inside the shell instead of an interactive session.
	// It is interpreted by the shell, so callers must quote it.
	Command string
}

// Shell returns a nix-shell command for attr in file. The caller connects
// the standard streams and runs it.
func (n *Nix) Shell(file, attr string, opts ShellOpts) *Cmd {
	args := Args{file}
	if opts.System != "" {
		args = append(args, "--system", opts.System)
	}
	args = append(args, "-A", attr)
	if opts.Command != "" {
		args = append(args, "--command", opts.Command)
	}
	return n.Tool("nix-shell", args...)
}

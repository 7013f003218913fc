// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package boxcli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"go.jetify.com/nilla/internal/build"
	"go.jetify.com/nilla/nix"
)

type versionFlags struct {
	verbose bool
}

func versionCmd() *cobra.Command {
	flags := versionFlags{}
	command := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return versionCmdFunc(cmd, args, flags)
		},
	}

	command.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, // value
		"displays additional version information",
	)
	return command
}

func versionCmdFunc(cmd *cobra.Command, _ []string, flags versionFlags) error {
	w := cmd.OutOrStdout()
	v := getVersionInfo(flags.verbose)
	if flags.verbose {
		fmt.Fprintf(w, "Version:     %v\n", v.Version)
		fmt.Fprintf(w, "Platform:    %v\n", v.Platform)
		fmt.Fprintf(w, "OS:          %v\n", v.OS)
		fmt.Fprintf(w, "Commit:      %v\n", v.Commit)
		fmt.Fprintf(w, "Commit Time: %v\n", v.CommitDate)
		fmt.Fprintf(w, "Go Version:  %v\n", v.GoVersion)
		fmt.Fprintf(w, "Nix Version: %v\n", v.NixVersion)
	} else {
		fmt.Fprintf(w, "%v\n", v.Version)
	}
	return nil
}

type versionInfo struct {
	Version    string
	Platform   string
	OS         string
	Commit     string
	CommitDate string
	GoVersion  string
	NixVersion string
}

func getVersionInfo(withNix bool) *versionInfo {
	v := &versionInfo{
		Version:    build.Version,
		Platform:   fmt.Sprintf("%s_%s", runtime.GOOS, runtime.GOARCH),
		OS:         build.OS(),
		Commit:     build.Commit,
		CommitDate: build.CommitDate,
		GoVersion:  runtime.Version(),
		NixVersion: "not installed",
	}
	if !withNix {
		return v
	}
	if info, err := nix.Default.Info(); err == nil {
		v.NixVersion = info.Version
		if !info.AtLeast(nix.MinVersion) {
			v.NixVersion += fmt.Sprintf(" (nilla requires %s or later)", nix.MinVersion)
		}
	}
	return v
}

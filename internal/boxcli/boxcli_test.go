// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package boxcli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"go.jetify.com/nilla/internal/envir"
	"go.jetify.com/nilla/internal/plugin"
)

func TestSplitDashArgs(t *testing.T) {
	tests := []struct {
		args       []string
		wantBefore []string
		wantAfter  []string
	}{
		{args: []string{}, wantBefore: []string{}},
		{args: []string{"hello"}, wantBefore: []string{"hello"}},
		{args: []string{"hello", "--", "-x", "y"}, wantBefore: []string{"hello"}, wantAfter: []string{"-x", "y"}},
		{args: []string{"--", "-x"}, wantBefore: []string{}, wantAfter: []string{"-x"}},
	}
	for _, tc := range tests {
		var gotBefore, gotAfter []string
		cmd := &cobra.Command{
			Use: "test",
			Run: func(cmd *cobra.Command, args []string) {
				gotBefore, gotAfter = splitDashArgs(cmd, args)
			},
		}
		cmd.SetArgs(tc.args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("args %q: %v", tc.args, err)
		}
		if diff := cmp.Diff(tc.wantBefore, gotBefore); diff != "" {
			t.Errorf("args %q: before (-want +got):\n%s", tc.args, diff)
		}
		if diff := cmp.Diff(tc.wantAfter, gotAfter); diff != "" {
			t.Errorf("args %q: after (-want +got):\n%s", tc.args, diff)
		}
	}
}

func TestShellCommand(t *testing.T) {
	t.Setenv(envir.Shell, "/bin/zsh")

	if got := shellCommand("make test", []string{"ignored"}); got != "make test" {
		t.Errorf("got %q, want the --command value", got)
	}
	if got, want := shellCommand("", []string{"echo", "hello world"}), "echo 'hello world'"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := shellCommand("", nil); got != "/bin/zsh" {
		t.Errorf("got %q, want $SHELL", got)
	}
}

func TestSystemName(t *testing.T) {
	got, err := systemName([]string{"laptop"})
	if err != nil || got != "laptop" {
		t.Errorf("got %q, %v; want laptop", got, err)
	}

	host, err := os.Hostname()
	if err != nil {
		t.Skip("no host name:", err)
	}
	got, err = systemName(nil)
	if err != nil || got != host {
		t.Errorf("got %q, %v; want %q", got, err, host)
	}
}

func TestRootCmdGroups(t *testing.T) {
	t.Setenv(envir.Path, t.TempDir())
	root := RootCmd()
	for _, c := range root.Commands() {
		if c.Hidden || c.Name() == "help" || c.Name() == "completion" {
			continue
		}
		if c.GroupID != coreGroup {
			t.Errorf("command %s is in group %q, want %q", c.Name(), c.GroupID, coreGroup)
		}
	}
}

func writePlugin(t *testing.T, dir, name, script string) {
	t.Helper()
	path := filepath.Join(dir, envir.NillaPluginPrefix+name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestAddPluginCmdsSkipsBuiltins(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "build", "echo shadowed\n")
	writePlugin(t, dir, "greet", "echo hi\n")
	t.Setenv(envir.Path, dir)

	root := RootCmd()
	greet, _, err := root.Find([]string{"greet"})
	if err != nil || greet.Name() != "greet" {
		t.Fatalf("plugin command greet not registered: %v", err)
	}
	if greet.GroupID != pluginGroup || !greet.DisableFlagParsing {
		t.Errorf("greet: group %q, flag parsing disabled %v", greet.GroupID, greet.DisableFlagParsing)
	}
	build, _, err := root.Find([]string{"build"})
	if err != nil {
		t.Fatal(err)
	}
	if build.GroupID != coreGroup {
		t.Errorf("build resolved to group %q, want the built-in command", build.GroupID)
	}
}

func TestRunPluginRewritesHelp(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "greet", `if [ "$1" = "--help" ]; then echo "Usage: nilla-greet [name]"; else echo "hi $1"; fi`+"\n")
	p := plugin.Plugin{Name: "greet", Path: filepath.Join(dir, "nilla-greet")}

	run := func(args ...string) string {
		var out bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetIn(&bytes.Buffer{})
		cmd.SetContext(t.Context())
		if err := runPlugin(cmd, p, args); err != nil {
			t.Fatalf("runPlugin(%q): %v", args, err)
		}
		return out.String()
	}

	if got, want := run("--help"), "Usage: nilla greet [name]\n"; got != want {
		t.Errorf("help: got %q, want %q", got, want)
	}
	if got, want := run("bob"), "hi bob\n"; got != want {
		t.Errorf("run: got %q, want %q", got, want)
	}
}

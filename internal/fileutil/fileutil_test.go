// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package fileutil

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"
)

func TestIsDirIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if !IsDir(dir) || IsFile(dir) {
		t.Errorf("got IsDir(%[1]q) = %v, IsFile(%[1]q) = %v", dir, IsDir(dir), IsFile(dir))
	}
	if IsDir(file) || !IsFile(file) {
		t.Errorf("got IsDir(%[1]q) = %v, IsFile(%[1]q) = %v", file, IsDir(file), IsFile(file))
	}
	missing := filepath.Join(dir, "missing")
	if Exists(missing) || IsDir(missing) || IsFile(missing) {
		t.Errorf("missing path %q reported as existing", missing)
	}
}

func TestIsExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "exe")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !IsExecutable(exe) {
		t.Errorf("got IsExecutable(%q) = false, want true", exe)
	}
	if IsExecutable(plain) {
		t.Errorf("got IsExecutable(%q) = true, want false", plain)
	}
	if IsExecutable(dir) {
		t.Errorf("got IsExecutable(%q) = true, want false", dir)
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/nobody")
	cases := map[string]string{
		"~":          "/home/nobody",
		"~/proj":     "/home/nobody/proj",
		"./relative": "./relative",
	}
	for in, want := range cases {
		got, err := ExpandHome(in)
		if err != nil {
			t.Fatalf("ExpandHome(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("got ExpandHome(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExpandHomeOtherUser(t *testing.T) {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		t.Skip("no current user:", err)
	}
	got, err := ExpandHome("~" + u.Username + "/proj")
	if err != nil {
		t.Fatalf("ExpandHome error: %v", err)
	}
	if want := filepath.Join(u.HomeDir, "proj"); got != want {
		t.Errorf("got ExpandHome() = %q, want %q", got, want)
	}

	if got, err := ExpandHome("~nilla-no-such-user/proj"); err == nil {
		t.Errorf("got ExpandHome() = %q, want an error for an unknown user", got)
	}
}

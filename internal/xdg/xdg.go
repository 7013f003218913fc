// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package xdg

import (
	"os"
	"path/filepath"

	"go.jetify.com/nilla/internal/envir"
)

func ConfigSubpath(subpath string) string {
	return filepath.Join(configDir(), subpath)
}

func configDir() string { return resolveDir(envir.XDGConfigHome, ".config") }

func resolveDir(envvar, defaultPath string) string {
	if dir := os.Getenv(envvar); dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	return filepath.Join(home, defaultPath)
}

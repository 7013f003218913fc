// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

// Package plugin finds nilla plugins. A plugin is an executable named
// nilla-<name> in $PATH; `nilla <name> args...` runs it with args.
package plugin

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"

	"go.jetify.com/nilla/internal/envir"
	"go.jetify.com/nilla/internal/fileutil"
)

// Plugin is an executable that extends nilla with a subcommand.
type Plugin struct {
	// Name is the subcommand, without the nilla- prefix.
	Name string

	// Path is the executable with symlinks resolved.
	Path string
}

// Discover returns the plugins found in the directories of pathList, a
// list in the format of $PATH. When two directories contain a plugin with
// the same name the earlier one wins, as it would for a shell. Plugins are
// sorted by name.
func Discover(pathList string) []Plugin {
	var found []Plugin
	for _, dir := range lo.Uniq(filepath.SplitList(pathList)) {
		if dir == "" || !fileutil.IsDir(dir) {
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(dir), envir.NillaPluginPrefix+"*")
		if err != nil {
			slog.Debug("skipping plugin directory", "dir", dir, "err", err)
			continue
		}
		for _, match := range matches {
			path := filepath.Join(dir, match)
			if !fileutil.IsExecutable(path) {
				continue
			}
			name := strings.TrimPrefix(match, envir.NillaPluginPrefix)
			if name == "" {
				continue
			}
			slog.Debug("discovered plugin", "name", name, "path", path)
			found = append(found, Plugin{Name: name, Path: canonical(path)})
		}
	}

	found = lo.UniqBy(found, func(p Plugin) string { return p.Name })
	slices.SortStableFunc(found, func(a, b Plugin) int { return strings.Compare(a.Name, b.Name) })
	return found
}

// Find looks up the plugin for the subcommand name in $PATH.
func Find(name string) (Plugin, bool) {
	if name == "" || strings.ContainsRune(name, filepath.Separator) {
		return Plugin{}, false
	}
	path, err := exec.LookPath(envir.NillaPluginPrefix + name)
	if err != nil {
		return Plugin{}, false
	}
	return Plugin{Name: name, Path: canonical(path)}, true
}

// Command returns a command that runs the plugin with args. The caller
// connects the standard streams.
func (p Plugin) Command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, p.Path, args...)
	cmd.Args[0] = envir.NillaPluginPrefix + p.Name
	return cmd
}

func canonical(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return resolved
}

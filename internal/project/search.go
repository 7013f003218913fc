// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package project

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"go.jetify.com/nilla/internal/debug"
	"go.jetify.com/nilla/internal/fileutil"
)

// Search returns the nearest directory, starting at start and walking up to
// the filesystem root, that directly contains the manifest. If start is a
// file the search begins in its directory.
func Search(start string) (string, error) {
	defer debug.Timer("project.Search").End()

	dir, err := canonical(start)
	if err != nil {
		return "", err
	}
	if fileutil.IsFile(dir) {
		dir = filepath.Dir(dir)
	}

	for {
		debug.Log("looking for %s in %s", ManifestFile, dir)
		if fileutil.IsFile(filepath.Join(dir, ManifestFile)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &NoProjectFoundError{Start: start}
		}
		dir = parent
	}
}

// canonical returns an absolute path with symlinks resolved. Paths that don't
// exist are only made absolute so that the search can still continue from
// their nearest existing ancestor.
func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.WithStack(err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if errors.Is(err, os.ErrNotExist) {
		return abs, nil
	}
	if err != nil {
		return "", errors.WithStack(err)
	}
	return resolved, nil
}

// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tree creates files and directories under a temporary root. Names ending
// in "/" are directories. It returns the root with symlinks resolved.
func tree(t *testing.T, names ...string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		if name[len(name)-1] == '/' {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{ }\n"), 0o644))
	}
	return root
}

func TestSearchFindsNearestAncestor(t *testing.T) {
	root := tree(t, "nilla.nix", "a/nilla.nix", "a/b/c/")

	got, err := Search(filepath.Join(root, "a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a"), got)

	got, err = Search(filepath.Join(root, "a"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a"), got, "start directory is inclusive")
}

func TestSearchFromFile(t *testing.T) {
	root := tree(t, "nilla.nix", "src/main.go")
	got, err := Search(filepath.Join(root, "src", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestSearchRelative(t *testing.T) {
	root := tree(t, "nilla.nix", "sub/")
	t.Chdir(filepath.Join(root, "sub"))

	got, err := Search(".")
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestSearchNonexistentStart(t *testing.T) {
	root := tree(t, "nilla.nix")
	got, err := Search(filepath.Join(root, "does", "not", "exist"))
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestSearchIgnoresManifestDirectory(t *testing.T) {
	root := tree(t, "nilla.nix/", "a/")
	_, err := Search(filepath.Join(root, "a"))
	if err == nil {
		// A manifest further up the real filesystem would also satisfy
		// the search; only check that the directory wasn't picked.
		t.Skip("found a nilla.nix above the temporary directory")
	}
	var noProject *NoProjectFoundError
	require.ErrorAs(t, err, &noProject)
}

func TestSearchNoProject(t *testing.T) {
	root := tree(t, "empty/")
	start := filepath.Join(root, "empty")
	_, err := Search(start)
	if err == nil {
		t.Skip("found a nilla.nix above the temporary directory")
	}
	var noProject *NoProjectFoundError
	require.ErrorAs(t, err, &noProject)
	assert.Equal(t, start, noProject.Start)
	assert.Contains(t, err.Error(), start)
}

func TestSearchFollowsSymlinks(t *testing.T) {
	root := tree(t, "real/nilla.nix", "real/deep/", "links/")
	link := filepath.Join(root, "links", "proj")
	require.NoError(t, os.Symlink(filepath.Join(root, "real", "deep"), link))

	got, err := Search(link)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "real"), got)
}

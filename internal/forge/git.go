// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package forge

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/pkg/errors"
)

// RemoteRev asks a plain Git remote which commit ref points to, the same
// way `git ls-remote` does. An empty ref means the remote's HEAD. Branches
// are preferred over tags of the same short name, and annotated tags are
// peeled to the commit they point to.
func (c *Client) RemoteRev(ctx context.Context, remoteURL, ref string) (string, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{remoteURL},
	})

	c.logger().DebugContext(ctx, "listing git remote", "url", remoteURL, "ref", ref)
	refs, err := remote.ListContext(ctx, &git.ListOptions{PeelingOption: git.AppendPeeled})
	if err != nil {
		return "", errors.Wrapf(err, "list remote %s", remoteURL)
	}
	rev, err := matchRef(refs, ref)
	if err != nil {
		return "", errors.Wrapf(err, "remote %s", remoteURL)
	}
	return rev, nil
}

// matchRef picks the commit for ref out of an advertised reference list.
func matchRef(refs []*plumbing.Reference, ref string) (string, error) {
	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, r := range refs {
		byName[r.Name()] = r
	}

	var candidates []plumbing.ReferenceName
	switch {
	case ref == "" || ref == string(plumbing.HEAD):
		candidates = []plumbing.ReferenceName{plumbing.HEAD}
	case strings.HasPrefix(ref, "refs/"):
		candidates = []plumbing.ReferenceName{plumbing.ReferenceName(ref)}
	default:
		candidates = []plumbing.ReferenceName{
			plumbing.NewBranchReferenceName(ref),
			plumbing.NewTagReferenceName(ref),
		}
	}

	for _, name := range candidates {
		r, ok := byName[name]
		if !ok {
			continue
		}
		// Follow symbolic refs such as HEAD -> refs/heads/main.
		for seen := 0; r.Type() == plumbing.SymbolicReference && seen < 8; seen++ {
			target, ok := byName[r.Target()]
			if !ok {
				return "", errors.Errorf("ref %s points to missing %s", r.Name(), r.Target())
			}
			r = target
		}
		if r.Type() != plumbing.HashReference {
			return "", errors.Errorf("ref %s does not resolve to a commit", name)
		}
		if peeled, ok := byName[plumbing.ReferenceName(string(r.Name())+"^{}")]; ok {
			r = peeled
		}
		return r.Hash().String(), nil
	}
	if ref == "" {
		ref = string(plumbing.HEAD)
	}
	return "", errors.Errorf("ref %q not found", ref)
}

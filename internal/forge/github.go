// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package forge

import (
	"net/url"
	"strings"
)

type githubAdapter struct{}

func (githubAdapter) apiBase(host string) string {
	return "https://api." + host
}

func (githubAdapter) repoURL(base string, r Repo) string {
	return base + "/repos/" + url.PathEscape(r.Owner) + "/" + url.PathEscape(r.Name)
}

func (g githubAdapter) commitURL(base string, r Repo, branch string) string {
	return g.repoURL(base, r) + "/commits/" + escapeSegments(branch)
}

func (githubAdapter) commitField() string { return "sha" }

func (g githubAdapter) tarballURL(base string, r Repo, rev string) string {
	return g.repoURL(base, r) + "/tarball/" + url.PathEscape(rev)
}

// escapeSegments escapes each slash-separated part of ref. GitHub matches
// branch names such as release/v1 against the unescaped path.
func escapeSegments(ref string) string {
	parts := strings.Split(ref, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

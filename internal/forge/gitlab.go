// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package forge

import "net/url"

type gitlabAdapter struct{}

func (gitlabAdapter) apiBase(host string) string {
	return "https://" + host + "/api/v4"
}

// repoURL addresses the project by its URL-encoded full path, so the slash
// between owner and name is sent as %2F.
func (gitlabAdapter) repoURL(base string, r Repo) string {
	return base + "/projects/" + url.PathEscape(r.Owner+"/"+r.Name)
}

// commitURL escapes slashes in branch, which GitLab requires for refs.
func (g gitlabAdapter) commitURL(base string, r Repo, branch string) string {
	return g.repoURL(base, r) + "/repository/commits/" + url.PathEscape(branch)
}

func (gitlabAdapter) commitField() string { return "id" }

func (g gitlabAdapter) tarballURL(base string, r Repo, rev string) string {
	return g.repoURL(base, r) + "/repository/archive.tar.gz?sha=" + url.QueryEscape(rev)
}

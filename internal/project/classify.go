// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package project

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"go.jetify.com/nilla/internal/fileutil"
	"go.jetify.com/nilla/internal/forge"
)

// Target is a classified project reference. It holds everything needed to
// resolve the reference and nothing that requires I/O to obtain.
type Target struct {
	Input  string
	Source Source

	// LocalPath is the filesystem path for path sources. When Search is
	// true the project root is the nearest ancestor containing the
	// manifest; otherwise LocalPath itself is the root.
	LocalPath string
	Search    bool

	// URI is the parsed reference for remote sources.
	URI *url.URL
}

// rule is one step of reference classification. Rules are tried in order and
// the first whose prefix matches decides.
type rule struct {
	prefix   string
	classify func(input string) (Target, error)
}

// rules is the complete, ordered classification of project references:
//
//  1. "." or "/" is a local path; search upward for the manifest.
//  2. "~" is a path relative to the home directory; search upward.
//  3. "path:" is an exact local path; no upward search.
//  4. Anything else must be a URI with a known scheme.
var rules = []rule{
	{".", searchPath},
	{"/", searchPath},
	{"~", homePath},
	{"path:", exactPath},
	{"", parseURI},
}

// schemes maps URI schemes to sources. http and https are tarballs.
var schemes = map[string]Source{
	"git":       SourceGit,
	"github":    SourceGitHub,
	"gitlab":    SourceGitLab,
	"sourcehut": SourceSourcehut,
	"tarball":   SourceTarball,
	"http":      SourceTarball,
	"https":     SourceTarball,
}

// Classify decides how a project reference will be resolved. It performs no
// I/O.
func Classify(input string) (Target, error) {
	r, _ := lo.Find(rules, func(r rule) bool {
		return strings.HasPrefix(input, r.prefix)
	})
	return r.classify(input)
}

func searchPath(input string) (Target, error) {
	return Target{Input: input, Source: SourcePath, LocalPath: input, Search: true}, nil
}

func homePath(input string) (Target, error) {
	expanded, err := fileutil.ExpandHome(input)
	if err != nil {
		return Target{}, &InvalidURIError{URI: input, Reason: err.Error()}
	}
	return Target{Input: input, Source: SourcePath, LocalPath: expanded, Search: true}, nil
}

func exactPath(input string) (Target, error) {
	p := strings.TrimPrefix(input, "path:")
	if p == "" {
		return Target{}, &InvalidURIError{URI: input, Reason: "empty path"}
	}
	expanded, err := fileutil.ExpandHome(p)
	if err != nil {
		return Target{}, &InvalidURIError{URI: input, Reason: err.Error()}
	}
	return Target{Input: input, Source: SourcePath, LocalPath: expanded}, nil
}

func parseURI(input string) (Target, error) {
	u, err := url.Parse(input)
	if err != nil {
		return Target{}, &InvalidURIError{URI: input, Reason: err.Error()}
	}
	if u.Scheme == "" {
		return Target{}, &InvalidURIError{URI: input, Reason: "not a path and has no scheme"}
	}
	source, ok := schemes[u.Scheme]
	if !ok {
		return Target{}, &UnsupportedSchemeError{URI: input, Scheme: u.Scheme}
	}
	// Tarball queries belong to the download URL. Sourcehut fails later
	// whatever its query holds.
	if _, err := url.ParseQuery(u.RawQuery); err != nil && source != SourceTarball && source != SourceSourcehut {
		return Target{}, &InvalidURIError{URI: input, Reason: "malformed query: " + err.Error()}
	}
	return Target{Input: input, Source: source, URI: u}, nil
}

// location returns the part of a URI after the scheme, without the query:
// the opaque part for "scheme:rest" forms, or authority and path for
// "scheme://host/path" forms.
func location(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	if u.Host == "" {
		return u.Path
	}
	return strings.TrimPrefix((&url.URL{User: u.User, Host: u.Host, Path: u.Path}).String(), "//")
}

// repoRef reads the owner/repo location and the rev, dir and host options of
// a github, gitlab or sourcehut reference.
func repoRef(t Target, kind forge.Kind) (forge.Repo, string, string, error) {
	loc := strings.Trim(location(t.URI), "/")
	parts := strings.Split(loc, "/")
	if len(parts) != 2 || lo.Contains(parts, "") {
		return forge.Repo{}, "", "", &InvalidURIError{
			URI:    t.Input,
			Reason: "expected " + string(kind) + ":<owner>/<repo>",
		}
	}

	q := t.URI.Query()
	dir, err := subdir(t, q)
	if err != nil {
		return forge.Repo{}, "", "", err
	}
	repo := forge.Repo{
		Host:  lo.CoalesceOrEmpty(q.Get("host"), kind.DefaultHost()),
		Owner: parts[0],
		Name:  parts[1],
	}
	return repo, q.Get("rev"), dir, nil
}

// gitRemote returns the repository URL of a git reference. The "git:" prefix
// is removed from "git:https://..." forms and the query is dropped. A
// "git://host/path" reference names a remote using the git protocol itself.
func gitRemote(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	if u.Host != "" {
		return (&url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host, Path: u.Path}).String()
	}
	return u.Path
}

// tarballURL normalizes a "tarball:" reference into an http(s) URL.
func tarballURL(t Target) (string, error) {
	raw := location(t.URI)
	if t.URI.RawQuery != "" {
		raw += "?" + t.URI.RawQuery
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" {
		return "", &InvalidURLError{URL: raw}
	}
	return raw, nil
}

// subdir returns the dir query option as given. It must stay inside the
// fetched source.
func subdir(t Target, q url.Values) (string, error) {
	dir := q.Get("dir")
	if dir == "" {
		return "", nil
	}
	if !filepath.IsLocal(path.Clean(strings.TrimPrefix(dir, "/"))) {
		return "", &InvalidURIError{URI: t.Input, Reason: "dir " + dir + " leaves the source root"}
	}
	return dir, nil
}

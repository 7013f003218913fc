// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

// Package project turns a project reference given on the command line into a
// local directory that contains a nilla.nix manifest.
//
// A reference is either a filesystem path or a URI naming a remote source:
//
//	./some/dir                     nearest ancestor with nilla.nix
//	path:/exact/dir                exactly that directory
//	git:https://host/repo.git?ref=main&dir=sub
//	github:owner/repo?rev=...&dir=...&host=...
//	gitlab:owner/repo
//	tarball:example.com/proj.tar.gz
//	https://example.com/proj.tar.gz
//
// Remote sources are fetched into the Nix store. Symbolic revisions are
// resolved to commits before fetching, so a resolved project always records
// the exact revision it came from.
package project

import (
	"path/filepath"
	"strconv"
)

// ManifestFile marks the root directory of a project.
const ManifestFile = "nilla.nix"

// Source identifies how a project was obtained.
type Source string

const (
	SourcePath      Source = "path"
	SourceGit       Source = "git"
	SourceGitHub    Source = "github"
	SourceGitLab    Source = "gitlab"
	SourceSourcehut Source = "sourcehut"
	SourceTarball   Source = "tarball"
)

// ResolvedProject is the result of resolving a project reference. Path is
// always an existing directory. The remaining fields record the parameters
// that were used to fetch it, after defaults were applied.
type ResolvedProject struct {
	Source Source `json:"source"`
	Path   string `json:"path"`

	// URL is set for git and tarball sources.
	URL string `json:"url,omitempty"`

	// Rev is always a concrete revision for git, github and gitlab sources.
	Rev        string `json:"rev,omitempty"`
	Ref        string `json:"ref,omitempty"`
	Submodules *bool  `json:"submodules,omitempty"`

	Owner string `json:"owner,omitempty"`
	Repo  string `json:"repo,omitempty"`
	Host  string `json:"host,omitempty"`

	// Dir is the project's subdirectory within the fetched source.
	Dir string `json:"dir,omitempty"`
}

// Manifest returns the path of the project's nilla.nix.
func (p *ResolvedProject) Manifest() string {
	return filepath.Join(p.Path, ManifestFile)
}

// Fields returns the populated fields as ordered name/value pairs for
// display.
func (p *ResolvedProject) Fields() [][2]string {
	fields := [][2]string{{"source", string(p.Source)}}
	add := func(name, value string) {
		if value != "" {
			fields = append(fields, [2]string{name, value})
		}
	}
	add("url", p.URL)
	add("owner", p.Owner)
	add("repo", p.Repo)
	add("host", p.Host)
	add("rev", p.Rev)
	add("ref", p.Ref)
	if p.Submodules != nil {
		add("submodules", strconv.FormatBool(*p.Submodules))
	}
	add("dir", p.Dir)
	add("path", p.Path)
	return fields
}

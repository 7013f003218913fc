// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package project

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"go.jetify.com/nilla/internal/fetcher"
	"go.jetify.com/nilla/internal/fileutil"
	"go.jetify.com/nilla/internal/forge"
)

// Forge resolves symbolic revisions of remote repositories. [*forge.Client]
// implements it.
type Forge interface {
	Resolve(ctx context.Context, kind forge.Kind, repo forge.Repo, rev string) (string, error)
	TarballURL(kind forge.Kind, repo forge.Repo, rev string) (string, error)
	RemoteRev(ctx context.Context, remoteURL, ref string) (string, error)
}

// Fetcher downloads remote sources. [*fetcher.Fetcher] implements it.
type Fetcher interface {
	Git(ctx context.Context, req fetcher.GitRequest) (string, error)
	Tarball(ctx context.Context, url, dir string) (string, error)
}

var (
	_ Forge   = (*forge.Client)(nil)
	_ Fetcher = (*fetcher.Fetcher)(nil)
)

// Resolver resolves project references. Each call is independent: nothing
// is cached between calls beyond what the Nix store keeps.
type Resolver struct {
	Forge   Forge
	Fetcher Fetcher

	// Logger defaults to [slog.Default].
	Logger *slog.Logger
}

// NewResolver returns a Resolver backed by the given host API client and the
// default Nix installation.
func NewResolver(client *forge.Client) *Resolver {
	return &Resolver{Forge: client, Fetcher: fetcher.New()}
}

// Resolve resolves a project reference with a Resolver that uses
// unauthenticated host API requests and the default Nix installation.
func Resolve(ctx context.Context, input string) (*ResolvedProject, error) {
	return NewResolver(&forge.Client{}).Resolve(ctx, input)
}

// handler resolves one kind of classified reference.
type handler func(r *Resolver, ctx context.Context, t Target) (*ResolvedProject, error)

var handlers = map[Source]handler{
	SourcePath:      (*Resolver).resolvePath,
	SourceGit:       (*Resolver).resolveGit,
	SourceGitHub:    hosted(forge.GitHub),
	SourceGitLab:    hosted(forge.GitLab),
	SourceSourcehut: (*Resolver).resolveSourcehut,
	SourceTarball:   (*Resolver).resolveTarball,
}

// Resolve classifies input, fetches it if it is remote, and returns the
// resolved project. It returns either a complete result or an error naming
// the reference; it never returns a partial result.
func (r *Resolver) Resolve(ctx context.Context, input string) (*ResolvedProject, error) {
	t, err := Classify(input)
	if err != nil {
		return nil, err
	}
	r.logger().DebugContext(ctx, "resolving project", "input", input, "source", t.Source)

	p, err := handlers[t.Source](r, ctx, t)
	if err != nil {
		return nil, errors.WithMessagef(err, "resolve %s", input)
	}
	if !fileutil.IsDir(p.Path) {
		return nil, errors.WithMessagef(&NotFoundError{Path: p.Path}, "resolve %s", input)
	}
	r.logger().DebugContext(ctx, "resolved project", "input", input, "path", p.Path, "rev", p.Rev)
	return p, nil
}

func (r *Resolver) resolvePath(_ context.Context, t Target) (*ResolvedProject, error) {
	if t.Search {
		root, err := Search(t.LocalPath)
		if err != nil {
			return nil, err
		}
		return &ResolvedProject{Source: SourcePath, Path: root}, nil
	}

	dir, err := canonical(t.LocalPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{Path: t.LocalPath}
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	return &ResolvedProject{Source: SourcePath, Path: dir}, nil
}

func (r *Resolver) resolveGit(ctx context.Context, t Target) (*ResolvedProject, error) {
	q := t.URI.Query()
	dir, err := subdir(t, q)
	if err != nil {
		return nil, err
	}
	p := &ResolvedProject{
		Source: SourceGit,
		URL:    gitRemote(t.URI),
		Rev:    q.Get("rev"),
		Ref:    q.Get("ref"),
		Dir:    dir,
	}
	if p.URL == "" {
		return nil, &InvalidURIError{URI: t.Input, Reason: "missing repository url"}
	}
	if q.Has("submodules") {
		enabled := q.Get("submodules") == "true"
		p.Submodules = &enabled
	}
	if p.Rev == "" {
		p.Rev, err = r.Forge.RemoteRev(ctx, p.URL, p.Ref)
		if err != nil {
			return nil, err
		}
	}

	p.Path, err = r.Fetcher.Git(ctx, fetcher.GitRequest{
		URL:        p.URL,
		Rev:        p.Rev,
		Ref:        p.Ref,
		Submodules: p.Submodules,
		Dir:        p.Dir,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// hosted returns the handler for a hosting service with a REST API.
func hosted(kind forge.Kind) handler {
	return func(r *Resolver, ctx context.Context, t Target) (*ResolvedProject, error) {
		repo, rev, dir, err := repoRef(t, kind)
		if err != nil {
			return nil, err
		}
		rev, err = r.Forge.Resolve(ctx, kind, repo, rev)
		if err != nil {
			return nil, err
		}
		url, err := r.Forge.TarballURL(kind, repo, rev)
		if err != nil {
			return nil, err
		}
		path, err := r.Fetcher.Tarball(ctx, url, dir)
		if err != nil {
			return nil, err
		}
		return &ResolvedProject{
			Source: Source(kind),
			Owner:  repo.Owner,
			Repo:   repo.Name,
			Host:   repo.Host,
			Rev:    rev,
			Dir:    dir,
			Path:   path,
		}, nil
	}
}

func (r *Resolver) resolveSourcehut(context.Context, Target) (*ResolvedProject, error) {
	return nil, &NotImplementedError{Feature: "sourcehut"}
}

func (r *Resolver) resolveTarball(ctx context.Context, t Target) (*ResolvedProject, error) {
	url := t.Input
	if t.URI.Scheme == "tarball" {
		var err error
		if url, err = tarballURL(t); err != nil {
			return nil, err
		}
	}
	path, err := r.Fetcher.Tarball(ctx, url, "")
	if err != nil {
		return nil, err
	}
	return &ResolvedProject{Source: SourceTarball, URL: url, Path: path}, nil
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

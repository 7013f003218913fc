// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

// Package fetcher downloads project sources into the Nix store and returns
// the local path of the project root inside them.
package fetcher

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/pkg/errors"

	"go.jetify.com/nilla/nix"
)

// Store is the content-addressed retrieval primitive. FetchSource returns a
// store reference and Realise turns it into a readable filesystem path.
// [*nix.Nix] implements Store.
type Store interface {
	FetchSource(ctx context.Context, req nix.FetchRequest) (string, error)
	Realise(ctx context.Context, ref string) (string, error)
}

var _ Store = (*nix.Nix)(nil)

// GitRequest describes a Git source. Empty fields and a nil Submodules are
// not passed on to the store.
type GitRequest struct {
	URL        string
	Rev        string
	Ref        string
	Submodules *bool

	// Dir is a subdirectory of the checkout that holds the project.
	Dir string
}

// Fetcher fetches sources through a Store. Failures are returned as-is with
// the source that caused them; nothing is retried.
type Fetcher struct {
	Store Store

	// Logger defaults to [slog.Default].
	Logger *slog.Logger
}

// New returns a Fetcher that uses the default Nix installation.
func New() *Fetcher {
	return &Fetcher{Store: nix.Default}
}

// Git fetches a Git repository and returns the realised path joined with
// req.Dir.
func (f *Fetcher) Git(ctx context.Context, req GitRequest) (string, error) {
	ref, err := f.Store.FetchSource(ctx, nix.FetchRequest{
		Kind:       nix.FetchGit,
		URL:        req.URL,
		Rev:        req.Rev,
		Ref:        req.Ref,
		Submodules: req.Submodules,
	})
	if err != nil {
		return "", errors.Wrapf(err, "fetch git repository %s", req.URL)
	}
	return f.realise(ctx, ref, req.Dir, req.URL)
}

// Tarball fetches and unpacks an archive and returns the realised path
// joined with dir.
func (f *Fetcher) Tarball(ctx context.Context, url, dir string) (string, error) {
	ref, err := f.Store.FetchSource(ctx, nix.FetchRequest{Kind: nix.FetchTarball, URL: url})
	if err != nil {
		return "", errors.Wrapf(err, "fetch tarball %s", url)
	}
	return f.realise(ctx, ref, dir, url)
}

func (f *Fetcher) realise(ctx context.Context, ref, dir, origin string) (string, error) {
	path, err := f.Store.Realise(ctx, ref)
	if err != nil {
		return "", errors.Wrapf(err, "realise %s from %s", ref, origin)
	}
	f.logger().DebugContext(ctx, "realised source", "origin", origin, "path", path, "dir", dir)
	if dir != "" {
		path = filepath.Join(path, dir)
	}
	return path, nil
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}

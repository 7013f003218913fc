// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package nix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FetchKind selects a Nix fetcher builtin.
type FetchKind string

const (
	FetchGit     FetchKind = "git"
	FetchTarball FetchKind = "tarball"
)

// fetchArgsEnv passes fetcher arguments to the evaluator as JSON so that no
// user input is ever spliced into Nix source.
const fetchArgsEnv = "NILLA_FETCH_ARGS"

var fetchExprs = map[FetchKind]string{
	FetchGit:     `(builtins.fetchGit (builtins.fromJSON (builtins.getEnv "` + fetchArgsEnv + `"))).outPath`,
	FetchTarball: `builtins.fetchTarball (builtins.fromJSON (builtins.getEnv "` + fetchArgsEnv + `"))`,
}

// FetchRequest describes a source to download into the Nix store.
type FetchRequest struct {
	Kind FetchKind
	URL  string

	// Rev, Ref and Submodules only apply to Git. Empty values and a nil
	// Submodules are left out of the request so that the fetcher's own
	// defaults apply.
	Rev        string
	Ref        string
	Submodules *bool
}

// Args returns the attribute set passed to the fetcher builtin.
func (r FetchRequest) Args() map[string]any {
	args := map[string]any{"url": r.URL}
	if r.Kind != FetchGit {
		return args
	}
	if r.Rev != "" {
		args["rev"] = r.Rev
	}
	if r.Ref != "" {
		args["ref"] = r.Ref
	}
	if r.Submodules != nil {
		args["submodules"] = *r.Submodules
	}
	return args
}

// FetchSource downloads a source with builtins.fetchGit or
// builtins.fetchTarball and returns its store path.
func (n *Nix) FetchSource(ctx context.Context, req FetchRequest) (string, error) {
	expr, ok := fetchExprs[req.Kind]
	if !ok {
		return "", fmt.Errorf("nix: unknown fetch kind %q", req.Kind)
	}
	if req.URL == "" {
		return "", errors.New("nix: fetch request has no url")
	}
	args, err := json.Marshal(req.Args())
	if err != nil {
		return "", err
	}

	var storePath string
	err = n.EvalJSON(ctx, expr, &storePath, EvalOpts{
		Impure: true,
		Env:    []string{fetchArgsEnv + "=" + string(args)},
	})
	if err != nil {
		return "", err
	}
	if storePath == "" {
		return "", fmt.Errorf("nix: fetch %s returned an empty store path", req.URL)
	}
	return storePath, nil
}

// Realise makes sure a store path is present on disk and returns the
// resulting filesystem path.
func (n *Nix) Realise(ctx context.Context, storePath string) (string, error) {
	out, err := n.Tool("nix-store", "--realise", storePath).Output(ctx)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("nix: nix-store --realise %s printed no paths", storePath)
}

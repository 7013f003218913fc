// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

// Package nilla evaluates the nilla.nix manifest of a resolved project.
package nilla

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"go.jetify.com/nilla/internal/boxcli/usererr"
	"go.jetify.com/nilla/internal/fileutil"
	"go.jetify.com/nilla/internal/project"
	"go.jetify.com/nilla/nix"
)

// Evaluator evaluates Nix expressions to JSON. [*nix.Nix] implements it.
type Evaluator interface {
	EvalJSON(ctx context.Context, expr string, v any, opts nix.EvalOpts) error
}

var _ Evaluator = (*nix.Nix)(nil)

// reserved top-level attributes of a project that are not user content.
var reserved = []string{"assertions", "warnings", "extend", "explain"}

// Project is a resolved project whose manifest is known to exist.
type Project struct {
	*project.ResolvedProject

	eval Evaluator
}

// Open returns the project at p. It fails with a user error if the project
// has no manifest.
func Open(p *project.ResolvedProject, eval Evaluator) (*Project, error) {
	if !fileutil.IsFile(p.Manifest()) {
		return nil, usererr.New("No %s found in %s.", project.ManifestFile, p.Path)
	}
	return &Project{ResolvedProject: p, eval: eval}, nil
}

// Entry returns the path of the manifest.
func (p *Project) Entry() string {
	return p.Manifest()
}

// prelude binds the imported manifest to "project".
func (p *Project) prelude() string {
	return fmt.Sprintf("let project = import (builtins.toPath %s); in ", nix.Quote(p.Entry()))
}

func (p *Project) evalJSON(ctx context.Context, body string, v any) error {
	return p.eval.EvalJSON(ctx, p.prelude()+body, v, nix.EvalOpts{Impure: true})
}

// Exists reports whether attr is defined. Intermediate attributes that are
// missing count as not defined rather than as evaluation errors.
func (p *Project) Exists(ctx context.Context, attr string) (bool, error) {
	names, err := SplitAttr(attr)
	if err != nil {
		return false, err
	}
	last := nix.Quote(names[len(names)-1])

	body := "project ? " + last
	if init := names[:len(names)-1]; len(init) > 0 {
		body = fmt.Sprintf("(project.%s or { }) ? %s", selector(init), last)
	}

	var ok bool
	if err := p.evalJSON(ctx, body, &ok); err != nil {
		return false, errors.WithMessagef(err, "check attribute %s", attr)
	}
	return ok, nil
}

// MustExist is like [Project.Exists] but returns a user error for an
// attribute that isn't defined.
func (p *Project) MustExist(ctx context.Context, attr string) error {
	ok, err := p.Exists(ctx, attr)
	if err != nil {
		return err
	}
	if !ok {
		return usererr.New("Attribute %s does not exist in project %s.", attr, p.Entry())
	}
	return nil
}

// MainProgram returns the name of the executable that `nilla run` starts
// for the package at attr: its meta.mainProgram, or fallback when unset.
func (p *Project) MainProgram(ctx context.Context, attr, fallback string) (string, error) {
	names, err := SplitAttr(attr)
	if err != nil {
		return "", err
	}
	body := fmt.Sprintf("project.%s.meta.mainProgram or %s", selector(names), nix.Quote(fallback))

	var main string
	if err := p.evalJSON(ctx, body, &main); err != nil {
		return "", errors.WithMessagef(err, "find main program of %s", attr)
	}
	return main, nil
}

// Names returns the project's top-level attribute names without the
// reserved ones.
func (p *Project) Names(ctx context.Context) ([]string, error) {
	body := fmt.Sprintf("builtins.attrNames (builtins.removeAttrs project %s)", list(reserved))

	var names []string
	if err := p.evalJSON(ctx, body, &names); err != nil {
		return nil, errors.WithMessage(err, "list project attributes")
	}
	return names, nil
}

// HasExplanation reports whether the project explains the top-level
// attribute name.
func (p *Project) HasExplanation(ctx context.Context, name string) (bool, error) {
	body := fmt.Sprintf("(project.explain or { }) ? %s", nix.Quote(name))

	var ok bool
	if err := p.evalJSON(ctx, body, &ok); err != nil {
		return false, errors.WithMessagef(err, "check explanation of %s", name)
	}
	return ok, nil
}

// Explain returns the explanation of the top-level attribute name, or nil
// if there is none.
func (p *Project) Explain(ctx context.Context, name string) (*ExplainEntry, error) {
	body := fmt.Sprintf("(project.explain or { }).%s.result or null", nix.Quote(name))

	var entry *ExplainEntry
	if err := p.evalJSON(ctx, body, &entry); err != nil {
		return nil, errors.WithMessagef(err, "explain %s", name)
	}
	return entry, nil
}

func list(items []string) string {
	s := "["
	for _, item := range items {
		s += " " + nix.Quote(item)
	}
	return s + " ]"
}

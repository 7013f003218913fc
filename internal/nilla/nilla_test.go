// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package nilla

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jetify.com/nilla/internal/boxcli/usererr"
	"go.jetify.com/nilla/internal/project"
	"go.jetify.com/nilla/nix"
)

// fakeEval returns the JSON in results for the first expression containing
// the key, and records every expression.
type fakeEval struct {
	results map[string]string
	exprs   []string
}

func (f *fakeEval) EvalJSON(_ context.Context, expr string, v any, opts nix.EvalOpts) error {
	f.exprs = append(f.exprs, expr)
	if !opts.Impure {
		return errors.New("manifest evaluation must be impure")
	}
	for key, out := range f.results {
		if strings.Contains(expr, key) {
			return json.Unmarshal([]byte(out), v)
		}
	}
	return errors.Errorf("unexpected expression %s", expr)
}

func openTestProject(t *testing.T, results map[string]string) (*Project, *fakeEval) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, project.ManifestFile), []byte("{ }\n"), 0o644))

	eval := &fakeEval{results: results}
	p, err := Open(&project.ResolvedProject{Source: project.SourcePath, Path: dir}, eval)
	require.NoError(t, err)
	return p, eval
}

func TestOpenWithoutManifest(t *testing.T) {
	_, err := Open(&project.ResolvedProject{Path: t.TempDir()}, &fakeEval{})
	require.Error(t, err)
	_, isUserErr := usererr.Extract(err)
	assert.True(t, isUserErr)
	assert.Contains(t, err.Error(), "No nilla.nix found")
}

func TestExists(t *testing.T) {
	p, eval := openTestProject(t, map[string]string{
		`? "x86_64-linux"`: "true",
		`? "hello"`:        "false",
	})

	ok, err := p.Exists(t.Context(), PackageAttr("hello", "x86_64-linux"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, eval.exprs[0], `(project."packages"."hello"."result" or { }) ? "x86_64-linux"`)
	assert.Contains(t, eval.exprs[0], nix.Quote(p.Entry()))

	ok, err = p.Exists(t.Context(), "hello")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, eval.exprs[1], `in project ? "hello"`)

	err = p.MustExist(t.Context(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Attribute hello does not exist")
}

func TestMainProgram(t *testing.T) {
	p, eval := openTestProject(t, map[string]string{"meta.mainProgram": `"hi"`})

	main, err := p.MainProgram(t.Context(), PackageAttr("hello", "x86_64-linux"), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", main)
	assert.Contains(t, eval.exprs[0], `project."packages"."hello"."result"."x86_64-linux".meta.mainProgram or "hello"`)
}

func TestNamesAndExplain(t *testing.T) {
	p, eval := openTestProject(t, map[string]string{
		"attrNames":                   `["packages","shells"]`,
		`(project.explain or { }) ? `: "true",
		`.result or null`:             `{"name":"packages","description":"Built packages.","data":{"columns":["Name","Version"],"rows":[["hello","2.12"],["cowsay"]]},"entries":[]}`,
	})

	names, err := p.Names(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"packages", "shells"}, names)
	assert.Contains(t, eval.exprs[0], `[ "assertions" "warnings" "extend" "explain" ]`)

	ok, err := p.HasExplanation(t.Context(), "packages")
	require.NoError(t, err)
	assert.True(t, ok)

	entry, err := p.Explain(t.Context(), "packages")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Built packages.", entry.Description)

	var buf bytes.Buffer
	require.NoError(t, entry.Render(&buf))
	out := buf.String()
	assert.Contains(t, out, " packages ")
	assert.Contains(t, out, "Built packages.")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "cowsay")
}

func TestExplainNull(t *testing.T) {
	p, _ := openTestProject(t, map[string]string{".result or null": "null"})
	entry, err := p.Explain(t.Context(), "nothing")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestFitRow(t *testing.T) {
	assert.Equal(t, []string{"a", "", ""}, fitRow([]string{"a"}, 3))
	assert.Equal(t, []string{"a", "b"}, fitRow([]string{"a", "b", "c"}, 2))
}

func TestRenderNested(t *testing.T) {
	e := &ExplainEntry{
		Name:    "systems",
		Entries: []ExplainEntry{{Name: "nixos", Description: "NixOS systems."}},
	}
	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf))
	out := buf.String()
	assert.Less(t, strings.Index(out, "systems"), strings.Index(out, "nixos"))
	assert.Contains(t, out, "NixOS systems.")
}

// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package testscripts

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rogpeppe/go-internal/testscript"
	"github.com/stretchr/testify/require"

	"go.jetify.com/nilla/internal/boxcli"
)

func TestScripts(t *testing.T) {
	// List of directories with test scripts (files ending with .test.txt).
	dirs := globDirs("./**/*.test.txt")
	require.NotEmpty(t, dirs, "no test scripts found")

	for _, dir := range dirs {
		t.Run(dir, func(t *testing.T) {
			testscript.Run(t, getTestscriptParams(dir))
		})
	}
}

func TestMain(m *testing.M) {
	commands := map[string]func() int{
		"nilla": func() int {
			return boxcli.Execute(context.Background(), os.Args[1:])
		},
	}
	os.Exit(testscript.RunMain(m, commands))
}

// Return directories that contain files matching the pattern.
func globDirs(pattern string) []string {
	scripts, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil
	}

	directories := []string{}
	dups := map[string]bool{}
	for _, script := range scripts {
		dir := filepath.Dir(script)
		if !dups[dir] {
			directories = append(directories, dir)
			dups[dir] = true
		}
	}
	return directories
}

func getTestscriptParams(dir string) testscript.Params {
	return testscript.Params{
		Dir:                 dir,
		RequireExplicitExec: true,
		Setup: func(env *testscript.Env) error {
			// Keep only the directory with the nilla test binary so that
			// plugins on the host PATH don't leak into tests.
			oldPath := env.Getenv("PATH")
			env.Setenv("PATH", strings.Split(oldPath, string(os.PathListSeparator))[0])

			for _, name := range []string{"XDG_CONFIG_HOME", "XDG_CACHE_HOME"} {
				dir := filepath.Join(env.WorkDir, "."+strings.ToLower(strings.TrimPrefix(name, "XDG_")))
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
				env.Setenv(name, dir)
			}
			env.Setenv("NILLA_DEBUG", "")
			env.Setenv("CI", "true")
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			// Usage: json.superset superset.json subset.json
			// Checks that the JSON in superset.json contains all the keys and values
			// present in subset.json.
			"json.superset": func(script *testscript.TestScript, neg bool, args []string) {
				if len(args) != 2 {
					script.Fatalf("usage: json.superset superset.json subset.json")
				}
				if neg {
					script.Fatalf("json.superset does not support negation")
				}

				tree1 := map[string]any{}
				script.Check(json.Unmarshal([]byte(script.ReadFile(args[0])), &tree1))
				tree2 := map[string]any{}
				script.Check(json.Unmarshal([]byte(script.ReadFile(args[1])), &tree2))

				for expectedKey, expectedValue := range tree2 {
					actualValue, ok := tree1[expectedKey]
					if !ok {
						script.Fatalf("key '%s' not found, expected value '%v'", expectedKey, expectedValue)
					}
					if !reflect.DeepEqual(actualValue, expectedValue) {
						script.Fatalf("key '%s': expected '%v', got '%v'", expectedKey, expectedValue, actualValue)
					}
				}
			},
		},
	}
}

// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jetify.com/nilla/internal/forge"
)

func clearEnv(t *testing.T) {
	for _, name := range []string{
		"NILLA_PROJECT", "NILLA_NIX_PATH", "NILLA_SHOW_EVAL_COMMANDS", "NILLA_API_TIMEOUT",
		"NILLA_GITHUB_TOKEN", "NILLA_GITLAB_TOKEN", "GITHUB_TOKEN", "GITLAB_TOKEN",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("project", "p", DefaultProject, "")
	flags.Bool("show-eval-commands", false, "")
	return flags
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := load(viper.New(), filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.NoError(t, err)

	want := &Config{Project: DefaultProject}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	file := writeConfig(t, `
project = "github:acme/from-file"
nix_path = "/opt/nix/bin/nix"
api_timeout = "30s"
github_token = "file-token"
`)

	cfg, err := load(viper.New(), file, testFlags())
	require.NoError(t, err)
	assert.Equal(t, "github:acme/from-file", cfg.Project)
	assert.Equal(t, 30*time.Second, cfg.APITimeout)
	assert.Equal(t, file, cfg.File)

	t.Setenv("NILLA_PROJECT", "gitlab:acme/from-env")
	t.Setenv("GITHUB_TOKEN", "env-token")
	cfg, err = load(viper.New(), file, testFlags())
	require.NoError(t, err)
	assert.Equal(t, "gitlab:acme/from-env", cfg.Project)
	assert.Equal(t, "env-token", cfg.GitHubToken)
	assert.Equal(t, "/opt/nix/bin/nix", cfg.NixPath)

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"-p", "./from-flag", "--show-eval-commands"}))
	cfg, err = load(viper.New(), file, flags)
	require.NoError(t, err)
	assert.Equal(t, "./from-flag", cfg.Project)
	assert.True(t, cfg.ShowEvalCommands)
}

func TestLoadPrefixedTokenWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITLAB_TOKEN", "plain")
	t.Setenv("NILLA_GITLAB_TOKEN", "prefixed")
	cfg, err := load(viper.New(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.GitLabToken)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	_, err := load(viper.New(), writeConfig(t, "project = [unterminated"), nil)
	assert.ErrorContains(t, err, "read config file")

	_, err = load(viper.New(), writeConfig(t, `api_timeout = "-1s"`), nil)
	assert.ErrorContains(t, err, "must not be negative")
}

func TestTokensAndClients(t *testing.T) {
	cfg := &Config{GitHubToken: "gh", APITimeout: time.Minute, NixPath: "/bin/nix", ShowEvalCommands: true}
	assert.Equal(t, map[forge.Kind]string{forge.GitHub: "gh"}, cfg.Tokens())

	client := cfg.ForgeClient()
	assert.Equal(t, time.Minute, client.HTTPClient.Timeout)
	assert.Equal(t, "gh", client.Tokens[forge.GitHub])

	n := cfg.Nix()
	assert.Equal(t, "/bin/nix", n.Path)
	assert.True(t, n.ShowCommands)
	assert.NotEmpty(t, n.ExtraArgs)
}

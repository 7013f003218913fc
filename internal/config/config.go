// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

// Package config loads nilla's settings. Values are taken, in order of
// precedence, from command line flags, NILLA_* environment variables, the
// user's config file and built-in defaults.
package config

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"go.jetify.com/nilla/internal/envir"
	"go.jetify.com/nilla/internal/forge"
	"go.jetify.com/nilla/internal/xdg"
	"go.jetify.com/nilla/nix"
)

// Keys
const (
	KeyProject          = "project"
	KeyGitHubToken      = "github_token"
	KeyGitLabToken      = "gitlab_token"
	KeyNixPath          = "nix_path"
	KeyShowEvalCommands = "show_eval_commands"
	KeyAPITimeout       = "api_timeout"
)

// DefaultProject is the project reference used when none is given.
const DefaultProject = "./"

// Config holds the resolved settings for a single invocation.
type Config struct {
	Project          string        `mapstructure:"project"`
	GitHubToken      string        `mapstructure:"github_token"`
	GitLabToken      string        `mapstructure:"gitlab_token"`
	NixPath          string        `mapstructure:"nix_path"`
	ShowEvalCommands bool          `mapstructure:"show_eval_commands"`
	APITimeout       time.Duration `mapstructure:"api_timeout"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// File returns the default location of the config file.
func File() string {
	return xdg.ConfigSubpath("nilla/config.toml")
}

// Load reads the settings, giving precedence to flags in fs that were set
// on the command line. Flags are matched to keys by name with dashes
// replaced by underscores. fs may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	return load(viper.New(), File(), flags)
}

func load(v *viper.Viper, file string, flags *pflag.FlagSet) (*Config, error) {
	v.SetDefault(KeyProject, DefaultProject)
	v.SetDefault(KeyGitHubToken, "")
	v.SetDefault(KeyGitLabToken, "")
	v.SetDefault(KeyNixPath, "")
	v.SetDefault(KeyShowEvalCommands, false)
	v.SetDefault(KeyAPITimeout, "0s")

	v.SetEnvPrefix("NILLA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// The conventional token variables are honoured as well as the
	// prefixed ones.
	if err := v.BindEnv(KeyGitHubToken, "NILLA_GITHUB_TOKEN", envir.GitHubToken); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := v.BindEnv(KeyGitLabToken, "NILLA_GITLAB_TOKEN", envir.GitLabToken); err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("toml")
		err := v.ReadInConfig()
		switch {
		case err == nil:
			cfg.File = file
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, errors.Wrapf(err, "read config file %s", file)
		}
	}

	if flags != nil {
		for _, key := range []string{KeyProject, KeyNixPath, KeyShowEvalCommands, KeyAPITimeout} {
			flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, errors.WithStack(err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if cfg.APITimeout < 0 {
		return nil, errors.Errorf("config: %s must not be negative, got %s", KeyAPITimeout, cfg.APITimeout)
	}
	if cfg.Project == "" {
		cfg.Project = DefaultProject
	}
	return cfg, nil
}

// Tokens returns the API tokens by hosting service. Services without a
// token are omitted.
func (c *Config) Tokens() map[forge.Kind]string {
	tokens := map[forge.Kind]string{}
	if c.GitHubToken != "" {
		tokens[forge.GitHub] = c.GitHubToken
	}
	if c.GitLabToken != "" {
		tokens[forge.GitLab] = c.GitLabToken
	}
	return tokens
}

// ForgeClient returns a hosting service API client that uses the
// configured tokens and timeout.
func (c *Config) ForgeClient() *forge.Client {
	return &forge.Client{
		HTTPClient: &http.Client{Timeout: c.APITimeout},
		Tokens:     c.Tokens(),
	}
}

// Nix returns the Nix installation to use. It is [nix.Default] adjusted
// for the nix_path and show_eval_commands settings.
func (c *Config) Nix() *nix.Nix {
	return &nix.Nix{
		Path:         c.NixPath,
		ExtraArgs:    nix.Default.ExtraArgs,
		ShowCommands: c.ShowEvalCommands,
	}
}

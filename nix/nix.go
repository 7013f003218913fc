// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package nix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/mod/semver"
)

// MinVersion is the oldest Nix that supports `nix eval --expr` and
// `nix build -f` behind the nix-command feature flag.
const MinVersion = "2.4.0"

// Default is the default Nix installation.
var Default = &Nix{
	ExtraArgs: Args{"--extra-experimental-features", "nix-command"},
}

// Nix provides an interface for interacting with Nix. The zero value is valid
// and uses the first Nix executable found in $PATH.
type Nix struct {
	// Path is the absolute path to the nix executable. If it is empty,
	// nix commands use the executable found in $PATH.
	Path     string
	lookPath atomic.Pointer[string]

	// ExtraArgs are passed to every nix command. They are not passed to the
	// legacy tools such as nix-store and nix-shell.
	ExtraArgs Args

	// ShowCommands logs command starts and exits at [slog.LevelInfo]
	// instead of [slog.LevelDebug].
	ShowCommands bool

	// Logger defaults to [slog.Default].
	Logger *slog.Logger

	info     Info
	infoErr  error
	infoOnce sync.Once
}

// Command creates a nix command with n's path, extra arguments and logger.
func (n *Nix) Command(args ...any) *Cmd {
	cmd := n.Tool("nix", args...)
	tail := cmd.Args[1:]
	cmd.Args = append(append(cmd.Args[:1:1], n.ExtraArgs...), tail...)
	return cmd
}

// Tool creates a command for one of the executables installed next to nix,
// such as nix-store or nix-shell. Executables that aren't part of the Nix
// installation, such as nixos-rebuild, are looked up in $PATH. The name "nix"
// refers to nix itself.
func (n *Nix) Tool(name string, args ...any) *Cmd {
	cmd := &Cmd{
		Args:   make(Args, 1, 1+len(args)),
		Logger: n.logger(),
		level:  slog.LevelDebug,
	}
	if n.ShowCommands {
		cmd.level = slog.LevelInfo
	}

	nixPath, err := n.resolvePath()
	switch {
	case err != nil:
		cmd.Args[0] = name
		cmd.err = &cmdError{msg: "nix: unable to find nix executable: " + err.Error(), err: err}
	case name == "nix":
		cmd.Path = nixPath
		cmd.Args[0] = nixPath
		if n.Path == "" {
			cmd.Args[0] = "nix"
		}
	default:
		cmd.Args[0] = name
		cmd.Path = filepath.Join(filepath.Dir(nixPath), name)
		if _, statErr := os.Stat(cmd.Path); statErr != nil {
			// Not part of the Nix installation, so look in $PATH.
			if cmd.Path, err = exec.LookPath(name); err != nil {
				cmd.err = &cmdError{msg: fmt.Sprintf("nix: %s not found in $PATH", name), err: err}
			}
		}
	}
	cmd.Args = append(cmd.Args, args...)
	return cmd
}

// resolvePath returns n.Path if it is set and executable. Otherwise it looks
// for nix in $PATH and then in the usual installation directories.
func (n *Nix) resolvePath() (string, error) {
	if n.Path != "" {
		return exec.LookPath(n.Path)
	}
	if cached := n.lookPath.Load(); cached != nil && *cached != "" {
		return *cached, nil
	}

	_, _ = SourceProfile()
	path, pathErr := exec.LookPath("nix")
	if pathErr == nil {
		n.lookPath.Store(&path)
		return path, nil
	}

	for _, path := range []string{
		"/nix/var/nix/profiles/default/bin/nix",
		"/run/current-system/sw/bin/nix",
	} {
		stat, err := os.Stat(path)
		if err == nil && !stat.IsDir() && stat.Mode().Perm()&0o111 != 0 {
			n.lookPath.Store(&path)
			return path, nil
		}
	}
	return "", pathErr
}

func (n *Nix) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

// Info returns Nix version information. The result is cached after the
// first successful lookup of the executable.
func (n *Nix) Info() (Info, error) {
	cmd := n.Command("--version", "--debug")
	if cmd.err != nil {
		return Info{}, cmd.err
	}

	n.infoOnce.Do(func() {
		out, err := cmd.Output(context.Background())
		if err != nil {
			n.infoErr = err
			return
		}
		n.info, n.infoErr = parseInfo(out)
	})
	return n.info, n.infoErr
}

// System returns the Nix system of the current machine, such as
// x86_64-linux. It reads the system type reported by `nix --version --debug`
// and falls back to evaluating builtins.currentSystem.
func (n *Nix) System(ctx context.Context) (string, error) {
	if info, err := n.Info(); err == nil && info.System != "" {
		return info.System, nil
	}
	var system string
	if err := n.EvalJSON(ctx, "builtins.currentSystem", &system, EvalOpts{Impure: true}); err != nil {
		return "", err
	}
	if system == "" {
		return "", errors.New("nix: empty builtins.currentSystem")
	}
	return system, nil
}

// versionRegexp matches the first line of "nix --version" output. Nix
// prereleases have no hyphen before the prerelease component and may contain
// underscores.
var versionRegexp = regexp.MustCompile(`^(.+) \(.+\) ((?P<major>0|[1-9]\d*)\.(?P<minor>0|[1-9]\d*)\.(?P<patch>0|[1-9]\d*)(?:(?:-|pre)(?P<prerelease>(?:0|[1-9]\d*|\d*[_a-zA-Z-][_0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[_a-zA-Z-][_0-9a-zA-Z-]*))*))?(?:\+(?P<buildmetadata>[0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?)$`)

var preReleaseRegexp = regexp.MustCompile(`pre(?P<date>[0-9]+)_(?P<commit>[a-f0-9]{4,40})$`)

// Info describes a Nix installation.
type Info struct {
	// Name is usually "nix" but may name a fork such as Lix.
	Name    string
	Version string

	// System is the <arch>-<os> tuple Nix builds for by default.
	System       string
	ExtraSystems []string
	Features     []string
	StoreDir     string
}

func parseInfo(data []byte) (Info, error) {
	// nix (Nix) 2.21.2
	// System type: aarch64-darwin
	// Additional system types: x86_64-darwin
	// Features: gc, signed-caches
	// Store directory: /nix/store
	info := Info{}
	if len(data) == 0 {
		return info, errors.New("empty nix --version output")
	}

	lines := strings.Split(string(data), "\n")
	matches := versionRegexp.FindStringSubmatch(lines[0])
	if len(matches) < 3 {
		return info, fmt.Errorf("parse nix version: %s", lines[0])
	}
	info.Name = matches[1]
	info.Version = matches[2]
	for _, line := range lines[1:] {
		name, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		switch name {
		case "System type":
			info.System = value
		case "Additional system types":
			info.ExtraSystems = strings.Split(value, ", ")
		case "Features":
			info.Features = strings.Split(value, ", ")
		case "Store directory":
			info.StoreDir = value
		}
	}
	return info, nil
}

// AtLeast returns true if i.Version is >= version per semantic versioning. It
// returns false if i.Version is empty or unparsable and panics if version is
// not a valid semver.
func (i Info) AtLeast(version string) bool {
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		panic(fmt.Sprintf("nix.atLeast: invalid version %q", version[1:]))
	}
	if semver.IsValid("v" + i.Version) {
		return semver.Compare("v"+i.Version, version) >= 0
	}

	// Coerce prereleases like 2.23.0pre20240526_7de033d6 into
	// 2.23.0-pre.20240526+7de033d6.
	prerelease := preReleaseRegexp.ReplaceAllString(i.Version, "-pre.$date+$commit")
	return semver.Compare("v"+prerelease, version) >= 0
}

var sourceProfileMutex sync.Mutex

// SourceProfile adds the environment from the Nix profile shell scripts to
// the current process when the login shell didn't already do it. This puts
// the nix bin directory on PATH for single-user and daemon installs.
func SourceProfile() (sourced bool, err error) {
	if profileSourced() {
		return false, nil
	}
	sourceProfileMutex.Lock()
	defer sourceProfileMutex.Unlock()
	if profileSourced() {
		return false, nil
	}

	shell, _ := exec.LookPath("sh")
	if shell == "" {
		shell = "/bin/sh"
	}
	for _, path := range profilePaths() {
		if err = sourceInto(shell, path); err == nil {
			return true, nil
		}
	}
	return false, errors.New("unable to source Nix profile")
}

func sourceInto(shell, path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	want := map[string]bool{
		"NIX_PROFILES":      true,
		"NIX_SSL_CERT_FILE": true,
		"PATH":              true,
	}
	script := fmt.Sprintf(". %q\n", path)
	for name := range want {
		script += fmt.Sprintf("echo %s=\"$%[1]s\"\n", name)
	}
	out, err := exec.CommandContext(ctx, shell, "-e", "-c", script).Output()
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(out), "\n") {
		name, value, ok := strings.Cut(line, "=")
		if !ok || !want[name] {
			continue
		}
		if err := os.Setenv(name, value); err != nil {
			return err
		}
		delete(want, name)
	}
	return nil
}

// profileSourced uses NIX_PROFILES because it is set by single-user installs
// and on NixOS.
func profileSourced() bool {
	_, ok := os.LookupEnv("NIX_PROFILES")
	return ok
}

func profilePaths() []string {
	paths := []string{
		"/nix/var/nix/profiles/default/etc/profile.d/nix-daemon.sh",
		"/nix/var/nix/profiles/default/etc/profile.d/nix.sh",
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		if u, uerr := user.Current(); uerr == nil {
			home = u.HomeDir
		}
	}
	if home != "" {
		paths = append(paths,
			filepath.Join(home, ".nix-profile/etc/profile.d/nix.sh"),
			filepath.Join(home, ".local/state/nix/profile/etc/profile.d/nix.sh"),
		)
	}
	return paths
}

// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package plugin

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// probeTimeout bounds each --help or --version call.
const probeTimeout = 5 * time.Second

// Metadata is what a plugin reports about itself through --help and
// --version. Plugins that don't support those flags have empty metadata.
type Metadata struct {
	Version string

	// Usage is the usage line with "nilla-<name>" rewritten to
	// "nilla <name>".
	Usage string

	Commands []CommandInfo
	Examples []string

	// SupportsCompletions is true when the help text mentions completions.
	SupportsCompletions bool
}

// CommandInfo is a subcommand listed in a plugin's help text.
type CommandInfo struct {
	Name        string
	Description string
}

// Probe runs the plugin with --help and --version concurrently and parses
// the output.
func Probe(ctx context.Context, p Plugin) Metadata {
	var help, version string
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		help = p.output(ctx, "--help")
		return nil
	})
	g.Go(func() error {
		version = cleanVersion(p.output(ctx, "--version"))
		return nil
	})
	_ = g.Wait()

	md := parseHelp(help, p.Name)
	md.Version = version
	return md
}

// ProbeAll probes every plugin concurrently. The result is in the same order
// as plugins.
func ProbeAll(ctx context.Context, plugins []Plugin) []Metadata {
	out := make([]Metadata, len(plugins))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range plugins {
		g.Go(func() error {
			out[i] = Probe(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// output returns the trimmed stdout of a successful run, or "" on failure.
func (p Plugin) output(ctx context.Context, arg string) string {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := p.Command(ctx, arg).Output()
	if err != nil {
		slog.Debug("plugin probe failed", "plugin", p.Name, "arg", arg, "err", err)
		return ""
	}
	return string(bytes.TrimSpace(out))
}

// cleanVersion drops a leading program name, as in "nilla-home 1.2.0".
func cleanVersion(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.LastIndexByte(v, ' '); i >= 0 {
		return v[i+1:]
	}
	return v
}

func parseHelp(help, name string) Metadata {
	if help == "" {
		return Metadata{}
	}
	md := Metadata{
		SupportsCompletions: strings.Contains(help, "completion"),
	}

	for _, line := range strings.Split(help, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Usage:") || strings.HasPrefix(line, "USAGE:") {
			md.Usage = strings.ReplaceAll(line, "nilla-"+name, "nilla "+name)
			break
		}
	}

	md.Commands = lo.FilterMap(section(help, "Commands:"), func(line string, _ int) (CommandInfo, bool) {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] == "help" || strings.HasPrefix(line, "Options:") {
			return CommandInfo{}, false
		}
		desc := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		return CommandInfo{Name: fields[0], Description: desc}, true
	})

	md.Examples = lo.Filter(section(help, "Examples:"), func(line string, _ int) bool {
		return len(line) > 5 &&
			!strings.HasPrefix(line, "#") &&
			!strings.HasPrefix(line, "$") &&
			!strings.HasPrefix(line, "Options:") &&
			!strings.HasPrefix(line, "Commands:")
	})
	return md
}

// section returns the trimmed, non-empty lines after heading up to the next
// blank line.
func section(text, heading string) []string {
	start := strings.Index(text, heading)
	if start < 0 {
		return nil
	}
	body := text[start+len(heading):]
	end := strings.Index(body, "\n\n")
	if end < 0 {
		end = len(body)
	}
	lines := strings.Split(body[:end], "\n")
	return lo.Compact(lo.Map(lines, func(l string, _ int) string { return strings.TrimSpace(l) }))
}

// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package nilla

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.jetify.com/nilla/nix"
)

// DefaultName is the package or shell used when none is named.
const DefaultName = "default"

// PackageAttr returns the attribute path of a package for system. A name
// that already contains a dot is taken to be a full attribute path.
func PackageAttr(name, system string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return "packages." + nix.Quote(lo.CoalesceOrEmpty(name, DefaultName)) + ".result." + nix.Quote(system)
}

// ShellAttr returns the attribute path of a development shell for system.
func ShellAttr(name, system string) string {
	return "shells." + nix.Quote(lo.CoalesceOrEmpty(name, DefaultName)) + ".result." + nix.Quote(system)
}

// SystemAttr returns the attribute path of a NixOS system configuration.
func SystemAttr(name string) string {
	return "systems.nixos." + nix.Quote(name) + ".result"
}

// SplitAttr splits an attribute path into its names. Names may be quoted
// with double quotes, in which case they may contain dots.
func SplitAttr(attr string) ([]string, error) {
	var (
		names   []string
		cur     strings.Builder
		quoted  bool
		escaped bool
		started bool
	)
	for _, r := range attr {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && r == '.':
			if !started && cur.Len() == 0 {
				return nil, errors.Errorf("attribute path %q has an empty name", attr)
			}
			names = append(names, cur.String())
			cur.Reset()
			started = false
		default:
			cur.WriteRune(r)
		}
	}
	if quoted {
		return nil, errors.Errorf("attribute path %q has an unterminated quote", attr)
	}
	if !started && cur.Len() == 0 {
		return nil, errors.Errorf("attribute path %q has an empty name", attr)
	}
	return append(names, cur.String()), nil
}

// selector renders names as a Nix attribute selection with every name
// quoted, such as `"packages"."hello"`.
func selector(names []string) string {
	return strings.Join(lo.Map(names, func(n string, _ int) string { return nix.Quote(n) }), ".")
}

// Kind describes what an attribute path builds and the name it builds.
type Kind struct {
	Type string
	Name string
}

// KindOf classifies an attribute path by its top-level attribute.
func KindOf(attr string) Kind {
	names, err := SplitAttr(attr)
	if err != nil || len(names) == 1 {
		return Kind{Type: "package", Name: attr}
	}
	switch {
	case names[0] == "systems" && len(names) > 2:
		return Kind{Type: "system", Name: names[2]}
	case names[0] == "shells":
		return Kind{Type: "shell", Name: names[1]}
	case names[0] == "packages":
		return Kind{Type: "package", Name: names[1]}
	}
	return Kind{Type: "attribute", Name: attr}
}

func (k Kind) String() string {
	return k.Type + " " + k.Name
}

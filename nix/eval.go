// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package nix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// EvalOpts configures expression evaluation.
type EvalOpts struct {
	// Impure allows access to the environment, the current system and
	// unpinned fetches.
	Impure bool

	// Env holds extra KEY=value pairs added to the process environment.
	Env []string
}

// Eval evaluates a Nix expression and returns its JSON encoding.
func (n *Nix) Eval(ctx context.Context, expr string, opts EvalOpts) ([]byte, error) {
	args := Args{"eval", "--show-trace", "--json"}
	if opts.Impure {
		args = append(args, "--impure")
	}
	args = append(args, "--expr", expr)

	cmd := n.Command(args...)
	if len(opts.Env) != 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	out, err := cmd.Output(ctx)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(out), nil
}

// EvalJSON evaluates a Nix expression and decodes the result into v.
func (n *Nix) EvalJSON(ctx context.Context, expr string, v any, opts EvalOpts) error {
	out, err := n.Eval(ctx, expr, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("nix: decode eval result %.80q: %w", out, err)
	}
	return nil
}

// Quote returns s as a Nix string literal. It escapes the characters that are
// special inside double-quoted Nix strings, including "${".
func Quote(s string) string {
	var b bytes.Buffer
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '$':
			if i+1 < len(s) && s[i+1] == '{' {
				b.WriteString(`\$`)
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

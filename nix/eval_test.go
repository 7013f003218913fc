// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package nix

import "testing"

func TestQuote(t *testing.T) {
	cases := map[string]string{
		"plain":            `"plain"`,
		`say "hi"`:         `"say \"hi\""`,
		`back\slash`:       `"back\\slash"`,
		"${builtins.exec}": `"\${builtins.exec}"`,
		"$HOME":            `"$HOME"`,
		"two\nlines":       `"two\nlines"`,
	}
	for in, want := range cases {
		if got := Quote(in); got != want {
			t.Errorf("got Quote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestEvalJSON(t *testing.T) {
	n := fakeNix(t, `echo '{"mainProgram":"hello"}'`+"\n", "")
	var got struct {
		MainProgram string `json:"mainProgram"`
	}
	if err := n.EvalJSON(t.Context(), "{}", &got, EvalOpts{}); err != nil {
		t.Fatal(err)
	}
	if got.MainProgram != "hello" {
		t.Errorf("got mainProgram %q, want %q", got.MainProgram, "hello")
	}
}

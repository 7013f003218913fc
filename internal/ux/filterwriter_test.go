// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package ux

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLineFilter(t *testing.T) {
	out := &bytes.Buffer{}
	lf := NewLineFilter(out, "evaluation warning:")

	writes := []string{
		"building the system configuration...\n",
		"evaluation warning: 'foo' is ",
		"deprecated\nactivating",
		" the configuration\n",
		"evaluation warning: trailing",
	}
	for _, w := range writes {
		if _, err := lf.Write([]byte(w)); err != nil {
			t.Fatal(err)
		}
	}
	if err := lf.Flush(); err != nil {
		t.Fatal(err)
	}

	wantOut := "building the system configuration...\nactivating the configuration\n"
	if diff := cmp.Diff(wantOut, out.String()); diff != "" {
		t.Errorf("forwarded output mismatch (-want +got):\n%s", diff)
	}
	wantCaptured := []string{
		"evaluation warning: 'foo' is deprecated",
		"evaluation warning: trailing",
	}
	if diff := cmp.Diff(wantCaptured, lf.Captured()); diff != "" {
		t.Errorf("captured lines mismatch (-want +got):\n%s", diff)
	}
}

// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package nix

import (
	"fmt"
	"regexp"
)

var (
	downloadMismatchRegexp = regexp.MustCompile(`error: hash mismatch in file downloaded from '([^']+)':`)
	fixedMismatchRegexp    = regexp.MustCompile(`error: hash mismatch in fixed-output derivation '([^']+)':`)
	specifiedHashRegexp    = regexp.MustCompile(`specified:\s+(\S+)`)
	gotHashRegexp          = regexp.MustCompile(`got:\s+(\S+)`)
)

// HashMismatchError reports that a fetched source or fixed-output derivation
// didn't match the hash declared in the project.
type HashMismatchError struct {
	// Source is the download URL, or the derivation path when Derivation
	// is true.
	Source     string
	Derivation bool
	Specified  string
	Got        string

	err error
}

func (e *HashMismatchError) Error() string {
	kind := "source"
	if e.Derivation {
		kind = "fixed-output derivation"
	}
	return fmt.Sprintf("hash mismatch for %s %s: specified %s, got %s", kind, e.Source, e.Specified, e.Got)
}

func (e *HashMismatchError) Unwrap() error { return e.err }

// parseHashMismatch returns nil unless stderr contains a complete hash
// mismatch report.
func parseHashMismatch(stderr []byte) *HashMismatchError {
	e := &HashMismatchError{}
	if m := downloadMismatchRegexp.FindSubmatch(stderr); m != nil {
		e.Source = string(m[1])
	} else if m := fixedMismatchRegexp.FindSubmatch(stderr); m != nil {
		e.Source = string(m[1])
		e.Derivation = true
	} else {
		return nil
	}

	specified := specifiedHashRegexp.FindSubmatch(stderr)
	got := gotHashRegexp.FindSubmatch(stderr)
	if specified == nil || got == nil {
		return nil
	}
	e.Specified = string(specified[1])
	e.Got = string(got[1])
	return e
}

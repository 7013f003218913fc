// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package project

import (
	"fmt"

	"go.jetify.com/nilla/internal/forge"
)

// InvalidURIError is returned for references that are not a path and do not
// parse as a URI, or whose URI lacks required parts.
type InvalidURIError struct {
	URI    string
	Reason string
}

func (e *InvalidURIError) Error() string {
	return fmt.Sprintf("invalid project uri %q: %s", e.URI, e.Reason)
}

// UnsupportedSchemeError is returned for well-formed URIs with a scheme that
// has no source handler.
type UnsupportedSchemeError struct {
	URI    string
	Scheme string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported project uri scheme %q in %q", e.Scheme, e.URI)
}

// NotFoundError is returned when an explicit local path, or the final path
// of a fetched project, does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("project path %s does not exist", e.Path)
}

// NoProjectFoundError is returned when no directory from Start up to the
// filesystem root contains a manifest.
type NoProjectFoundError struct {
	Start string
}

func (e *NoProjectFoundError) Error() string {
	return fmt.Sprintf("no %s found in %s or any parent directory", ManifestFile, e.Start)
}

// InvalidURLError is returned when a tarball reference doesn't normalize to
// a valid URL.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid tarball url %q", e.URL)
}

type (
	// HostAPIError is a non-success response from a hosting service API.
	HostAPIError = forge.HostAPIError

	// NotImplementedError is returned for sourcehut references.
	NotImplementedError = forge.NotImplementedError
)

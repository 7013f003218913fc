// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

// Package nix runs the Nix command line tools on behalf of nilla.
//
// Nix has no Go SDK, so every operation here is a subprocess: expression
// evaluation, source fetching, store realisation, builds and shells. The
// [Cmd] type wraps each invocation with consistent logging, cancellation and
// error messages.
package nix

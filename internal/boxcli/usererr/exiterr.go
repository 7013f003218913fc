// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package usererr

import (
	"errors"
	"os/exec"
)

// ExitError is the failure of a process that nilla ran on behalf of the user,
// such as nixos-rebuild or a plugin. Its exit code becomes nilla's exit code
// and nilla does not print anything extra for it.
type ExitError struct {
	err *exec.ExitError
}

// NewExecError wraps source in an ExitError if it came from an exec call.
// Other errors are returned unchanged.
func NewExecError(source error) error {
	if source == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if !errors.As(source, &exitErr) {
		return source
	}
	return &ExitError{err: exitErr}
}

func (e *ExitError) Error() string {
	return e.err.Error()
}

func (e *ExitError) Is(target error) bool {
	return errors.Is(e.err, target)
}

func (e *ExitError) ExitCode() int {
	return e.err.ExitCode()
}

func (e *ExitError) Unwrap() error { return e.err }

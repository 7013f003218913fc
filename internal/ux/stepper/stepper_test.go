// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package stepper

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestStepperPlainOutput(t *testing.T) {
	color.NoColor = true
	buf := &bytes.Buffer{}

	s := Start(buf, "Fetching %s", "github:acme/widgets")
	s.Display("Realising")
	s.Success("Fetched %s", "github:acme/widgets")

	assert.Equal(t, "Fetching github:acme/widgets...\nRealising\n✓ Fetched github:acme/widgets\n", buf.String())
}

func TestStepperFail(t *testing.T) {
	color.NoColor = true
	buf := &bytes.Buffer{}
	Start(buf, "Building").Fail("Build failed")
	assert.Equal(t, "Building...\n✘ Build failed\n", buf.String())
}

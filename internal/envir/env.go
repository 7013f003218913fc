// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package envir

const (
	NillaDebug         = "NILLA_DEBUG"
	NillaPrintExecTime = "NILLA_PRINT_EXEC_TIME"
	NillaPluginPrefix  = "nilla-"

	GitHubToken = "GITHUB_TOKEN"
	GitLabToken = "GITLAB_TOKEN"

	XDGConfigHome = "XDG_CONFIG_HOME"
)

// system
const (
	Path  = "PATH"
	Shell = "SHELL"
)

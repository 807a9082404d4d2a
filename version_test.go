/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityflow

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	var bi = &debug.BuildInfo{
		GoVersion: "go1.23.4",
		Main:      debug.Module{Path: "github.com/suparena/entityflow", Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "4f2a9c1"},
			{Key: "vcs.time", Value: "2025-06-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	t.Run("BuildInfo", func(t *testing.T) {
		var info = versionInfo(bi)
		assert.Equal(t, "v0.3.1", info.Version)
		assert.Equal(t, "4f2a9c1", info.GitCommit)
		assert.Equal(t, "2025-06-01T10:00:00Z", info.BuildDate)
		assert.True(t, info.Modified)
		assert.Equal(t, "go1.23.4", info.GoVersion)
	})

	t.Run("LinkerFlagsWin", func(t *testing.T) {
		defer func(v, c, d string) { Version, GitCommit, BuildDate = v, c, d }(Version, GitCommit, BuildDate)
		Version, GitCommit, BuildDate = "1.0.0", "abc", "today"

		var info = versionInfo(bi)
		assert.Equal(t, "1.0.0", info.Version)
		assert.Equal(t, "abc", info.GitCommit)
		assert.Equal(t, "today", info.BuildDate)
	})

	t.Run("NoBuildInfo", func(t *testing.T) {
		var info = versionInfo(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
		assert.Equal(t, unknown, info.Version)
		assert.Equal(t, unknown, info.GitCommit)
		assert.Equal(t, unknown, info.BuildDate)
		assert.Equal(t, runtime.Version(), info.GoVersion)

		assert.Equal(t, unknown, versionInfo(nil).Version)
	})
}

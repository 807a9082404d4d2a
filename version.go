/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityflow

import (
	"runtime"
	"runtime/debug"
)

// Release values stamped with -ldflags "-X". Unset values fall back to the
// module and VCS metadata embedded by the go command.
var (
	Version   = ""
	GitCommit = ""
	BuildDate = ""
)

const unknown = "unknown"

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	Modified  bool   `json:"modified"`
	GoVersion string `json:"goVersion"`
}

// GetVersionInfo merges ldflags values with debug.ReadBuildInfo.
func GetVersionInfo() VersionInfo {
	var bi, _ = debug.ReadBuildInfo()
	return versionInfo(bi)
}

func versionInfo(bi *debug.BuildInfo) VersionInfo {
	var info = VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if bi != nil {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "" {
					info.BuildDate = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}
	}
	for _, v := range []*string{&info.Version, &info.GitCommit, &info.BuildDate} {
		if *v == "" {
			*v = unknown
		}
	}
	return info
}

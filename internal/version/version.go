// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set via -ldflags "-X github.com/feddict/feddict/internal/version.Version=v1.2.3".
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string `json:"version"`    // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string `json:"git_commit"` // Short git commit hash (e.g., "abc1234")
	BuildTime string `json:"build_time"` // Build timestamp in RFC3339 format
}

// Get returns the version of the running binary. Without ldflags the VCS
// revision recorded by the Go toolchain is used when present.
func Get() Info {
	info := Info{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
	if info.GitCommit != "" {
		return info
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.GitCommit = shortCommit(s.Value)
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			}
		}
	}
	return info
}

// String renders "v1.2.3 (abc1234, 2025-01-30T12:00:00Z)", omitting
// unknown parts.
func (i Info) String() string {
	switch {
	case i.GitCommit != "" && i.BuildTime != "":
		return fmt.Sprintf("%s (%s, %s)", i.Version, i.GitCommit, i.BuildTime)
	case i.GitCommit != "":
		return fmt.Sprintf("%s (%s)", i.Version, i.GitCommit)
	default:
		return i.Version
	}
}

// UserAgent is sent by the API client.
func (i Info) UserAgent() string {
	return "feddict/" + i.Version
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

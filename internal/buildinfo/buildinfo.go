// Package buildinfo provides build version and metadata information.
package buildinfo

import (
	"runtime/debug"
	"strings"
)

// Version metadata is injected at build time via ldflags. When it is not,
// Summary falls back to the module and VCS data recorded by the go tool.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Summary returns a human-readable version summary string.
func Summary() string {
	version, commit, date := Version, Commit, Date
	if info, ok := debug.ReadBuildInfo(); ok {
		version, commit, date = fromBuildInfo(info, version, commit, date)
	}
	return format(version, commit, date)
}

func fromBuildInfo(info *debug.BuildInfo, version, commit, date string) (string, string, string) {
	if (version == "" || version == "dev") && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "" {
				commit = s.Value
				if len(commit) > 12 {
					commit = commit[:12]
				}
			}
		case "vcs.time":
			if date == "" {
				date = s.Value
			}
		}
	}
	return version, commit, date
}

func format(version, commit, date string) string {
	if strings.TrimSpace(version) == "" {
		version = "dev"
	}
	parts := version
	if commit != "" {
		parts += " (" + commit
		if date != "" {
			parts += " " + date
		}
		parts += ")"
	} else if date != "" {
		parts += " (" + date + ")"
	}
	return parts
}

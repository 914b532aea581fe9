package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// These variables are set at build time via ldflags.
	Version   = "dev"
	GitCommit = "unknown"
	GitTag    = ""
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// GetVersion returns the version string, preferring ldflags-provided
// values and falling back to module build info.
func GetVersion() string {
	if GitTag != "" {
		return GitTag
	}
	if Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}

		var revision, modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}

		if revision != "" {
			version := revision
			if len(revision) > 7 {
				version = revision[:7]
			}
			if modified == "true" {
				version += "+dirty"
			}
			return version
		}
	}

	return Version
}

// GetBuildInfo returns detailed build information for the version command.
func GetBuildInfo() string {
	version := GetVersion()

	if GitCommit != "unknown" && len(GitCommit) > 7 {
		version += fmt.Sprintf(" (commit: %s)", GitCommit[:7])
	} else if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) > 7 {
				version += fmt.Sprintf(" (commit: %s)", setting.Value[:7])
				break
			}
		}
	}

	buildDate := BuildDate
	if buildDate == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.time" {
					buildDate = setting.Value
					break
				}
			}
		}
	}

	return fmt.Sprintf(`tf-style-check %s
Built with: %s
Build date: %s`, version, GoVersion, buildDate)
}

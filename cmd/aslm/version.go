package main

import "runtime/debug"

// version can be set at build time:
//
//	go build -ldflags "-X main.version=v1.2.0" ./cmd/aslm
//
// Otherwise it comes from the module version or VCS revision.
var version string

func init() {
	if version == "" {
		info, ok := debug.ReadBuildInfo()
		version = versionFromBuildInfo(info, ok)
	}
}

func versionFromBuildInfo(info *debug.BuildInfo, ok bool) string {
	if !ok || info == nil {
		return "dev"
	}

	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var revision, modified string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		}
	}

	if revision == "" {
		return "dev"
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if modified == "true" {
		return revision + "-dirty"
	}
	return revision
}

// Package buildinfo reports what binary is running.
package buildinfo

import (
	"runtime/debug"
	"sync"
)

// Set at link time:
//
//	-X 'github.com/gogermany/gobot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/gogermany/gobot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/gogermany/gobot/core/buildinfo.Date=2025-08-30T12:00:00Z'
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// Info is the resolved build identity.
type Info struct {
	Version string
	Commit  string
	Date    string
}

var (
	once   sync.Once
	cached Info
)

// Get returns the linker-provided values, falling back to the module and
// VCS data embedded by the go tool, then to "dev" and "local".
func Get() Info {
	once.Do(func() {
		cached = resolve(Info{Version: Version, Commit: Commit, Date: Date}, debug.ReadBuildInfo)
	})
	return cached
}

func resolve(info Info, read func() (*debug.BuildInfo, bool)) Info {
	if bi, ok := read(); ok && bi != nil {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = shortRevision(s.Value)
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			}
		}
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "local"
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

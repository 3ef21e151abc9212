package buildinfo

import (
	"runtime/debug"
	"testing"
)

func TestResolveLinkerValuesWin(t *testing.T) {
	read := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main:     debug.Module{Version: "v0.9.0"},
			Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffffffffff"}},
		}, true
	}
	got := resolve(Info{Version: "v1.0.0", Commit: "abc"}, read)
	if got.Version != "v1.0.0" || got.Commit != "abc" {
		t.Fatalf("resolve = %+v", got)
	}
}

func TestResolveFallsBackToVCS(t *testing.T) {
	read := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Version: "(devel)"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			},
		}, true
	}
	got := resolve(Info{}, read)
	want := Info{Version: "dev", Commit: "0123456789ab", Date: "2026-01-02T03:04:05Z"}
	if got != want {
		t.Fatalf("resolve = %+v, want %+v", got, want)
	}
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	got := resolve(Info{}, func() (*debug.BuildInfo, bool) { return nil, false })
	if got.Version != "dev" || got.Commit != "local" || got.Date != "" {
		t.Fatalf("resolve = %+v", got)
	}
}

// Package version reports the build version of the linechat binaries.
//
// Release builds inject values with ldflags:
//
//	go build -ldflags "-X github.com/NicolasHaas/linechat/pkg/version.tag=v0.1.0
//	  -X github.com/NicolasHaas/linechat/pkg/version.commit=abc1234
//	  -X github.com/NicolasHaas/linechat/pkg/version.date=2026-01-01"
//
// Without ldflags the VCS stamp recorded by the Go toolchain is used.
package version

import (
	"runtime/debug"
	"sync"
)

var (
	tag    = ""
	commit = ""
	date   = ""
)

var stampOnce sync.Once

// stamp fills commit and date from build info when ldflags left them empty.
func stamp() {
	stampOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if commit == "" && len(s.Value) >= 7 {
					commit = s.Value[:7]
				}
			case "vcs.time":
				if date == "" {
					date = s.Value
				}
			}
		}
	})
}

// String returns the tag, the short commit, or "dev".
func String() string {
	stamp()
	switch {
	case tag != "":
		return tag
	case commit != "":
		return commit
	default:
		return "dev"
	}
}

// Full returns the version with commit and build date when known.
func Full() string {
	stamp()
	v := String()
	if tag != "" && commit != "" {
		v += " (" + commit + ")"
	}
	if date != "" {
		v += " built " + date
	}
	return v
}

// Package version reports the build version of the binaries.
//
// Values are set at build time:
//
//	go build -ldflags "-X github.com/walletkit-demo/walletpass/internal/version.version=v1.2.0 \
//	  -X github.com/walletkit-demo/walletpass/internal/version.buildDate=2026-01-01T00:00:00Z \
//	  -X github.com/walletkit-demo/walletpass/internal/version.gitCommit=abc1234"
//
// When they are not set the VCS stamp embedded by the go toolchain is used instead.
package version

import "runtime/debug"

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

type Info struct {
	Version   string
	BuildDate string
	GitCommit string
}

func Get() Info {
	info := Info{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" && len(s.Value) >= 7 {
				info.GitCommit = s.Value[:7]
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = s.Value
			}
		}
	}
	return info
}
